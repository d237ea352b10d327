package handler

import (
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// RegisterRequest is the self-service ADMIN registration payload.
type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	AdminID       string `json:"adminId"`
	InstitutionID string `json:"institutionId"`
}

// Validate enforces structural requirements before the core sees the input.
func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if r.AdminID == "" {
		return dErrors.New(dErrors.CodeValidation, "adminId is required")
	}
	return nil
}

// ParsedInstitutionID converts the optional institution reference.
func (r *RegisterRequest) ParsedInstitutionID() (id.InstitutionID, error) {
	if r.InstitutionID == "" {
		return id.InstitutionID{}, nil
	}
	return id.ParseInstitutionID(r.InstitutionID)
}

// LoginRequest carries one identifier plus the password. When several
// identifiers are supplied resolution is deterministic:
// email > adminId > studentId > employeeId.
type LoginRequest struct {
	Email      string `json:"email"`
	AdminID    string `json:"adminId"`
	StudentID  string `json:"studentId"`
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" && r.AdminID == "" && r.StudentID == "" && r.EmployeeID == "" {
		return dErrors.New(dErrors.CodeValidation, "an email or identifier is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}
