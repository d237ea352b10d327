//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/identity/models"
	"rollcall/internal/identity/store"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "identities"))
}

func newTestStudent(email, studentID, phone string) *models.Identity {
	now := time.Now()
	identity := &models.Identity{
		ID:           id.NewIdentityID(),
		Email:        email,
		FirstName:    "Integration",
		LastName:     "Student",
		Role:         models.RoleStudent,
		Phone:        phone,
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefake",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	identity.SetRoleIdentifier(studentID)
	return identity
}

func (s *PostgresStoreSuite) TestInsertAndRoundTrip() {
	ctx := context.Background()
	identity := newTestStudent("rt@x.com", "S-RT-1", "+471")
	identity.FingerprintTemplate = "cafebabe"
	identity.IsBiometricRegistered = true

	s.Require().NoError(s.store.Insert(ctx, identity))

	found, err := s.store.FindByID(ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(identity.Email, found.Email)
	s.Equal("S-RT-1", found.StudentID)
	s.Empty(found.AdminID)
	s.Empty(found.EmployeeID)
	s.Equal("cafebabe", found.FingerprintTemplate)
	s.True(found.IsBiometricRegistered)
	s.Nil(found.LastLogin)

	byAny, err := s.store.FindByAnyIdentifier(ctx, models.Lookup{StudentID: "S-RT-1"})
	s.Require().NoError(err)
	s.Equal(identity.ID, byAny.ID)
}

// TestConcurrentDuplicateInsert verifies the store-level constraint is the
// correctness mechanism: concurrent inserts sharing an email yield exactly
// one success.
func (s *PostgresStoreSuite) TestConcurrentDuplicateInsert() {
	ctx := context.Background()
	const goroutines = 32

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identity := newTestStudent("race@x.com", "S-RACE-"+uuid.NewString(), "")
			identity.Phone = "" // leave phone NULL so only email collides
			err := s.store.Insert(ctx, identity)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one insert should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")
}

func (s *PostgresStoreSuite) TestUniquenessPerField() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, newTestStudent("u1@x.com", "S-U-1", "+481")))

	s.Run("case-insensitive email", func() {
		err := s.store.Insert(ctx, newTestStudent("U1@X.COM", "S-U-2", "+482"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("student ID", func() {
		err := s.store.Insert(ctx, newTestStudent("u3@x.com", "S-U-1", "+483"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("phone", func() {
		err := s.store.Insert(ctx, newTestStudent("u4@x.com", "S-U-4", "+481"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("NULL identifiers do not collide", func() {
		a := newTestStudent("u5@x.com", "S-U-5", "")
		b := newTestStudent("u6@x.com", "S-U-6", "")
		s.Require().NoError(s.store.Insert(ctx, a))
		s.Require().NoError(s.store.Insert(ctx, b))
	})
}

func (s *PostgresStoreSuite) TestUpdateDeleteTouch() {
	ctx := context.Background()
	identity := newTestStudent("mut@x.com", "S-M-1", "+491")
	s.Require().NoError(s.store.Insert(ctx, identity))

	identity.IsPasswordChanged = true
	identity.PasswordHash = "$2a$10$anotherfakehashvalue"
	identity.UpdatedAt = time.Now()
	s.Require().NoError(s.store.Update(ctx, identity))

	at := time.Now()
	s.Require().NoError(s.store.TouchLastLogin(ctx, identity.ID, at))

	found, err := s.store.FindByID(ctx, identity.ID)
	s.Require().NoError(err)
	s.True(found.IsPasswordChanged)
	s.Require().NotNil(found.LastLogin)
	s.WithinDuration(at, *found.LastLogin, time.Second)

	s.Require().NoError(s.store.Delete(ctx, identity.ID))
	s.Require().ErrorIs(s.store.Delete(ctx, identity.ID), sentinel.ErrNotFound)

	ghost := newTestStudent("ghost@x.com", "S-M-2", "+492")
	s.Require().ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
}
