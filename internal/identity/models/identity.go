// Package models defines the Identity entity and its invariants.
package models

import (
	"strings"
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Role classifies a principal. An identity carries exactly one role and the
// matching role-scoped identifier.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
	RoleStudent  Role = "STUDENT"
)

// ParseRole validates and returns a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleEmployee:
		return RoleEmployee, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "role must be one of ADMIN, EMPLOYEE, STUDENT")
	}
}

func (r Role) String() string { return string(r) }

// Identity is a principal record. Uniqueness holds jointly over
// {Email, Phone, AdminID, StudentID, EmployeeID}: no two identities may
// collide on any of these fields. Exactly one of the three role-scoped
// identifiers is populated, and it always matches Role.
type Identity struct {
	ID        id.IdentityID
	Email     string
	FirstName string
	LastName  string
	Role      Role

	AdminID    string
	StudentID  string
	EmployeeID string

	Phone string

	// PasswordHash is never serialized by read operations; handler views
	// exclude it.
	PasswordHash      string
	IsPasswordChanged bool

	IsBiometricRegistered bool
	// Encrypted biometric templates (AES-GCM ciphertext, hex). Empty until
	// the modality is registered.
	FingerprintTemplate string
	FaceTemplate        string

	IsActive      bool
	LastLogin     *time.Time
	InstitutionID id.InstitutionID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleIdentifier returns the populated role-scoped identifier. Token subjects
// are built from this value.
func (i *Identity) RoleIdentifier() string {
	switch i.Role {
	case RoleAdmin:
		return i.AdminID
	case RoleEmployee:
		return i.EmployeeID
	default:
		return i.StudentID
	}
}

// SetRoleIdentifier populates the identifier field selected by Role and
// clears the other two.
func (i *Identity) SetRoleIdentifier(value string) {
	i.AdminID, i.EmployeeID, i.StudentID = "", "", ""
	switch i.Role {
	case RoleAdmin:
		i.AdminID = value
	case RoleEmployee:
		i.EmployeeID = value
	case RoleStudent:
		i.StudentID = value
	}
}

// Validate checks the role/identifier consistency invariant.
func (i *Identity) Validate() error {
	if i.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := ParseRole(string(i.Role)); err != nil {
		return err
	}
	populated := 0
	for _, v := range []string{i.AdminID, i.StudentID, i.EmployeeID} {
		if v != "" {
			populated++
		}
	}
	if populated != 1 {
		return dErrors.New(dErrors.CodeValidation, "exactly one of adminId, studentId, employeeId must be set")
	}
	if i.RoleIdentifier() == "" {
		return dErrors.New(dErrors.CodeValidation, "populated identifier does not match role")
	}
	return nil
}

// Clone returns a deep copy so in-memory stores never hand out aliased state.
func (i *Identity) Clone() *Identity {
	out := *i
	if i.LastLogin != nil {
		t := *i.LastLogin
		out.LastLogin = &t
	}
	return &out
}

// Lookup names the identifier fields a caller may resolve an identity by.
// At least one field must be set; the store matches any of them.
type Lookup struct {
	Email      string
	AdminID    string
	StudentID  string
	EmployeeID string
	Phone      string
}

// IsZero reports whether no lookup field is populated.
func (l Lookup) IsZero() bool {
	return l.Email == "" && l.AdminID == "" && l.StudentID == "" && l.EmployeeID == "" && l.Phone == ""
}

// CreateInput carries the caller-supplied fields for provisioning an
// identity. Identifier holds the raw role-scoped identifier value; the
// service selects which field it lands in based on Role.
type CreateInput struct {
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	Role          Role
	Identifier    string
	Password      string // self-registration only; empty when admin-provisioned
	InstitutionID id.InstitutionID
}

// UpdatePatch is a partial profile update. Role, identifiers and password
// never travel through this path.
type UpdatePatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	IsActive  *bool
}

// BiometricInput carries plaintext templates for registration. Each provided
// modality overwrites any previously stored ciphertext.
type BiometricInput struct {
	Fingerprint string
	Face        string
}

// IsZero reports whether no template was supplied.
func (b BiometricInput) IsZero() bool {
	return b.Fingerprint == "" && b.Face == ""
}
