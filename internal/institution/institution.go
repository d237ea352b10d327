// Package institution exposes the lookup surface the identity core needs
// from the externally managed Institution entity. Institution CRUD lives
// elsewhere; provisioning only asks "does this institution exist".
package institution

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
)

// Lookup answers existence checks for institutions.
type Lookup interface {
	Exists(ctx context.Context, institutionID id.InstitutionID) (bool, error)
}

// InMemory is a Lookup over a fixed set of institution IDs, for tests and
// local development.
type InMemory struct {
	mu    sync.RWMutex
	known map[id.InstitutionID]struct{}
}

// NewInMemory constructs an empty in-memory lookup.
func NewInMemory() *InMemory {
	return &InMemory{known: make(map[id.InstitutionID]struct{})}
}

// Add registers an institution ID as existing.
func (l *InMemory) Add(institutionID id.InstitutionID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.known[institutionID] = struct{}{}
}

func (l *InMemory) Exists(ctx context.Context, institutionID id.InstitutionID) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.known[institutionID]
	return ok, nil
}
