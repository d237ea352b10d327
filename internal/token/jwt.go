// Package jwttoken signs and verifies the bearer tokens the platform issues
// at login. Tokens are stateless: claims reflect the identity at issuance
// time and remain valid until expiry regardless of later account changes.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rollcall/internal/identity/models"
	dErrors "rollcall/pkg/domain-errors"
)

// Verification failures, distinguishable by errors.Is.
var (
	ErrTokenExpired   = dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	ErrTokenInvalid   = dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	ErrTokenMalformed = dErrors.New(dErrors.CodeUnauthorized, "malformed token")
)

// Claims are the identity claims carried by an access token. Subject (in
// RegisteredClaims) holds the role-scoped identifier the principal logged
// in with.
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// New constructs a token Service. The signing key is mandatory; main refuses
// to start without one.
func New(signingKey string, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Issue signs a time-bounded token for the given identity. Claims are built
// from the identity's state at issuance.
func (s *Service) Issue(identity *models.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.RoleIdentifier(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign token")
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}

	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
