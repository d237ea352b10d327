// Package hashing provides one-way password hashing for stored credentials.
package hashing

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "rollcall/pkg/domain-errors"
)

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// New returns a Hasher at bcrypt's default cost.
func New() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// Hash creates a salted bcrypt digest of the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is a
// verification failure, not an error.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
