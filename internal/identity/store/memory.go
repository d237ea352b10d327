// Package store persists Identity records. Both implementations enforce the
// joint uniqueness invariant over {email, phone, adminId, studentId,
// employeeId} at the write itself: the service-level duplicate pre-check is
// advisory UX, not the correctness mechanism.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rollcall/internal/identity/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded store for tests and local development.
// Uniqueness is checked and the record written under one lock, mirroring the
// atomic conflict-detecting insert the Postgres constraints provide.
type InMemory struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]*models.Identity
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{identities: make(map[id.IdentityID]*models.Identity)}
}

func (s *InMemory) Insert(ctx context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.identities {
		if collides(existing, identity) {
			return sentinel.ErrConflict
		}
	}
	s.identities[identity.ID] = identity.Clone()
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return identity.Clone(), nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return s.FindByAnyIdentifier(ctx, models.Lookup{Email: email})
}

func (s *InMemory) FindByAnyIdentifier(ctx context.Context, lookup models.Lookup) (*models.Identity, error) {
	if lookup.IsZero() {
		return nil, sentinel.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, identity := range s.identities {
		if matches(identity, lookup) {
			return identity.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Update replaces the stored record. Email and phone stay subject to the
// uniqueness invariant against all other records.
func (s *InMemory) Update(ctx context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[identity.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for otherID, existing := range s.identities {
		if otherID == identity.ID {
			continue
		}
		if collides(existing, identity) {
			return sentinel.ErrConflict
		}
	}
	s.identities[identity.ID] = identity.Clone()
	return nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, identity.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Delete(ctx context.Context, identityID id.IdentityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[identityID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.identities, identityID)
	return nil
}

func (s *InMemory) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities), nil
}

// TouchLastLogin stamps the last successful login time.
func (s *InMemory) TouchLastLogin(ctx context.Context, identityID id.IdentityID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[identityID]
	if !ok {
		return sentinel.ErrNotFound
	}
	t := at
	identity.LastLogin = &t
	return nil
}

func collides(existing, candidate *models.Identity) bool {
	if strings.EqualFold(existing.Email, candidate.Email) {
		return true
	}
	if existing.Phone != "" && existing.Phone == candidate.Phone {
		return true
	}
	for _, pair := range [][2]string{
		{existing.AdminID, candidate.AdminID},
		{existing.StudentID, candidate.StudentID},
		{existing.EmployeeID, candidate.EmployeeID},
	} {
		if pair[0] != "" && pair[0] == pair[1] {
			return true
		}
	}
	return false
}

func matches(identity *models.Identity, lookup models.Lookup) bool {
	if lookup.Email != "" && strings.EqualFold(identity.Email, lookup.Email) {
		return true
	}
	if lookup.Phone != "" && identity.Phone == lookup.Phone {
		return true
	}
	if lookup.AdminID != "" && identity.AdminID == lookup.AdminID {
		return true
	}
	if lookup.StudentID != "" && identity.StudentID == lookup.StudentID {
		return true
	}
	if lookup.EmployeeID != "" && identity.EmployeeID == lookup.EmployeeID {
		return true
	}
	return false
}
