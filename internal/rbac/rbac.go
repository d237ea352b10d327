// Package rbac holds the access-control decision function. It is pure: no
// I/O, no context, no side effects. Every role-gated operation passes its
// required-role set explicitly instead of relying on handler metadata.
package rbac

import "rollcall/internal/identity/models"

// Authorize reports whether actual satisfies the required-role set.
// An empty required set always authorizes.
func Authorize(required []models.Role, actual models.Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == actual {
			return true
		}
	}
	return false
}
