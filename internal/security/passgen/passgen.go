// Package passgen generates initial passwords for admin-provisioned
// accounts. The plaintext is transient: hashed once for storage, delivered
// once in the welcome notification, never persisted.
package passgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultLength is the number of random bytes per generated password; the
// hex encoding doubles it in characters.
const DefaultLength = 12

// Generator produces cryptographically random initial passwords.
type Generator struct {
	length int
}

// New returns a Generator at the default length.
func New() *Generator {
	return &Generator{length: DefaultLength}
}

// Generate returns a fresh random password as a hex string.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
