// Package domain holds typed identifiers shared across features. Wrapping
// uuid.UUID in distinct named types prevents an identity ID and an
// institution ID from being swapped at a call site.
package domain

import (
	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
)

// IdentityID identifies a principal record.
type IdentityID uuid.UUID

// InstitutionID identifies the institution an identity belongs to.
type InstitutionID uuid.UUID

// NewIdentityID returns a fresh random identity ID.
func NewIdentityID() IdentityID {
	return IdentityID(uuid.New())
}

// ParseIdentityID validates and returns an IdentityID.
// IDs must be valid, non-nil UUIDs.
func ParseIdentityID(s string) (IdentityID, error) {
	u, err := parse(s)
	if err != nil {
		return IdentityID{}, err
	}
	return IdentityID(u), nil
}

// ParseInstitutionID validates and returns an InstitutionID.
func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parse(s)
	if err != nil {
		return InstitutionID{}, err
	}
	return InstitutionID(u), nil
}

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func (id IdentityID) String() string { return uuid.UUID(id).String() }

func (id IdentityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id InstitutionID) String() string { return uuid.UUID(id).String() }

func (id InstitutionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
