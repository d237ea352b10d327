package passgen

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	g := New()

	p1, err := g.Generate()
	require.NoError(t, err)
	p2, err := g.Generate()
	require.NoError(t, err)

	assert.Len(t, p1, DefaultLength*2, "hex encoding doubles the byte length")
	assert.NotEqual(t, p1, p2)

	_, err = hex.DecodeString(p1)
	assert.NoError(t, err)
}
