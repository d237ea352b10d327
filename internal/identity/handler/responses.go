package handler

import (
	"time"

	"rollcall/internal/identity/models"
)

// IdentityResponse is the read view of an Identity. The password hash is
// never serialized; everything else mirrors the stored record, including
// the encrypted template blobs (useless without the process key).
type IdentityResponse struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	FirstName             string     `json:"firstName"`
	LastName              string     `json:"lastName"`
	Role                  string     `json:"role"`
	AdminID               string     `json:"adminId,omitempty"`
	StudentID             string     `json:"studentId,omitempty"`
	EmployeeID            string     `json:"employeeId,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	IsPasswordChanged     bool       `json:"isPasswordChanged"`
	IsBiometricRegistered bool       `json:"isBiometricRegistered"`
	EncryptedFingerprint  string     `json:"encryptedFingerprint,omitempty"`
	EncryptedFaceTemplate string     `json:"encryptedFaceTemplate,omitempty"`
	IsActive              bool       `json:"isActive"`
	LastLogin             *time.Time `json:"lastLogin,omitempty"`
	InstitutionID         string     `json:"institutionId,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// ToResponse converts an Identity to its read view.
func ToResponse(identity *models.Identity) IdentityResponse {
	resp := IdentityResponse{
		ID:                    identity.ID.String(),
		Email:                 identity.Email,
		FirstName:             identity.FirstName,
		LastName:              identity.LastName,
		Role:                  identity.Role.String(),
		AdminID:               identity.AdminID,
		StudentID:             identity.StudentID,
		EmployeeID:            identity.EmployeeID,
		Phone:                 identity.Phone,
		IsPasswordChanged:     identity.IsPasswordChanged,
		IsBiometricRegistered: identity.IsBiometricRegistered,
		EncryptedFingerprint:  identity.FingerprintTemplate,
		EncryptedFaceTemplate: identity.FaceTemplate,
		IsActive:              identity.IsActive,
		LastLogin:             identity.LastLogin,
		CreatedAt:             identity.CreatedAt,
		UpdatedAt:             identity.UpdatedAt,
	}
	if !identity.InstitutionID.IsNil() {
		resp.InstitutionID = identity.InstitutionID.String()
	}
	return resp
}

// ToResponseList converts a slice of identities.
func ToResponseList(identities []*models.Identity) []IdentityResponse {
	out := make([]IdentityResponse, 0, len(identities))
	for _, identity := range identities {
		out = append(out, ToResponse(identity))
	}
	return out
}
