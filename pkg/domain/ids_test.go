package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rollcall/pkg/domain-errors"
)

// TestParseIdentityID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseIdentityID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentityID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseIdentityID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseIdentityID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseIdentityID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, IdentityID(valid), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
func TestTypeDistinction(t *testing.T) {
	identityID := IdentityID(uuid.New())
	institutionID := InstitutionID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ IdentityID = institutionID   // compile error

	assert.NotEqual(t, uuid.UUID(identityID), uuid.UUID(institutionID))
}
