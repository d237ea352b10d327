package handler

import (
	"rollcall/internal/identity/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// CreateRequest is the admin-provisioning payload. Identifier carries the
// raw role-scoped identifier; the service decides which field it lands in.
type CreateRequest struct {
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	Identifier    string `json:"identifier"`
	InstitutionID string `json:"institutionId"`
}

func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := models.ParseRole(r.Role); err != nil {
		return err
	}
	if r.Identifier == "" {
		return dErrors.New(dErrors.CodeValidation, "identifier is required")
	}
	return nil
}

// ToInput converts the request to the service input.
func (r *CreateRequest) ToInput() (models.CreateInput, error) {
	role, err := models.ParseRole(r.Role)
	if err != nil {
		return models.CreateInput{}, err
	}
	var institutionID id.InstitutionID
	if r.InstitutionID != "" {
		institutionID, err = id.ParseInstitutionID(r.InstitutionID)
		if err != nil {
			return models.CreateInput{}, err
		}
	}
	return models.CreateInput{
		Email:         r.Email,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Phone:         r.Phone,
		Role:          role,
		Identifier:    r.Identifier,
		InstitutionID: institutionID,
	}, nil
}

// BulkCreateRequest is a batch of provisioning payloads, applied in order.
type BulkCreateRequest struct {
	Identities []CreateRequest `json:"identities"`
}

func (r *BulkCreateRequest) Validate() error {
	if len(r.Identities) == 0 {
		return dErrors.New(dErrors.CodeValidation, "identities must not be empty")
	}
	for i := range r.Identities {
		if err := r.Identities[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRequest is a partial profile patch. Absent fields stay untouched.
type UpdateRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	IsActive  *bool   `json:"isActive"`
}

// ToPatch converts the request to the service patch.
func (r *UpdateRequest) ToPatch() models.UpdatePatch {
	return models.UpdatePatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		IsActive:  r.IsActive,
	}
}

// BiometricRequest carries the plaintext templates to encrypt and store.
type BiometricRequest struct {
	Fingerprint string `json:"fingerprint"`
	Face        string `json:"face"`
}

func (r *BiometricRequest) Validate() error {
	if r.Fingerprint == "" && r.Face == "" {
		return dErrors.New(dErrors.CodeValidation, "at least one of fingerprint, face is required")
	}
	return nil
}

// PasswordRequest carries the replacement password.
type PasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (r *PasswordRequest) Validate() error {
	if len(r.NewPassword) < 8 {
		return dErrors.New(dErrors.CodeValidation, "newPassword must be at least 8 characters")
	}
	return nil
}
