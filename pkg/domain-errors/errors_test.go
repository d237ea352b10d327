package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load identity")

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause), "wrapped cause must survive errors.Is")
	assert.True(t, HasCode(err, CodeInternal))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCode(t *testing.T) {
	t.Run("matches own code", func(t *testing.T) {
		err := New(CodeConflict, "email already registered")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "identity not found")))
}

func TestMessageOfHidesNonDomainErrors(t *testing.T) {
	assert.Equal(t, "", MessageOf(errors.New("pq: relation does not exist")))
	assert.Equal(t, "identity not found", MessageOf(New(CodeNotFound, "identity not found")))
}
