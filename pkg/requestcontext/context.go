// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; handlers and services read
// them without importing net/http.
package requestcontext

import (
	"context"

	"rollcall/internal/identity/models"
)

// Principal is the token-derived caller identity attached to authenticated
// requests.
type Principal struct {
	Subject string // role-scoped identifier the principal logged in with
	Email   string
	Role    models.Role
}

// IsZero reports whether no principal is attached.
func (p Principal) IsZero() bool {
	return p.Subject == "" && p.Email == "" && p.Role == ""
}

type (
	principalKey struct{}
	requestIDKey struct{}
)

// CallerPrincipal retrieves the authenticated principal from the context.
// Returns the zero value if the request was not authenticated.
func CallerPrincipal(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Principal{}
}

// WithPrincipal injects the authenticated principal into the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
