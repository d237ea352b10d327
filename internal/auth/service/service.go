// Package service resolves login requests to validated identities and
// issues access tokens.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/auth/metrics"
	"rollcall/internal/identity/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

// Store is the identity lookup surface login resolution needs.
type Store interface {
	FindByAnyIdentifier(ctx context.Context, lookup models.Lookup) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	TouchLastLogin(ctx context.Context, identityID id.IdentityID, at time.Time) error
}

// Hasher verifies passwords against stored digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer signs access tokens for validated identities.
type TokenIssuer interface {
	Issue(identity *models.Identity) (string, error)
}

// Lifecycle is the slice of the identity lifecycle service registration
// delegates to.
type Lifecycle interface {
	Create(ctx context.Context, input models.CreateInput, selfRegistered bool) (*models.Identity, error)
}

// LoginInput carries the credential presented at login. Callers are
// expected to supply exactly one identifier; when several are present
// resolution picks deterministically: email > adminId > studentId >
// employeeId.
type LoginInput struct {
	Email      string
	AdminID    string
	StudentID  string
	EmployeeID string
	Password   string
}

// LoginResult is the issued bearer token.
type LoginResult struct {
	AccessToken string
}

// Service authenticates principals and issues tokens.
type Service struct {
	store     Store
	hasher    Hasher
	tokens    TokenIssuer
	lifecycle Lifecycle
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, hasher Hasher, tokens TokenIssuer, lifecycle Lifecycle, opts ...Option) *Service {
	s := &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		lifecycle: lifecycle,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register self-provisions an ADMIN identity. The supplied password is
// hashed here; the lifecycle service persists and sends the
// registration-success notification (no credentials included, the admin
// chose their own password).
func (s *Service) Register(ctx context.Context, input models.CreateInput) (*models.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if input.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	// Friendly fast path; the store constraint still backs the invariant.
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for existing registration")
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeValidation, "password is not acceptable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	input.Email = email
	input.Role = models.RoleAdmin
	input.Password = digest

	identity, err := s.lifecycle.Create(ctx, input, true)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Registrations.Inc()
	}
	return identity, nil
}

// Login resolves the principal, verifies the password and issues a token.
// Unknown identity and bad password collapse to the same generic failure so
// the API surface cannot be used to enumerate identifiers.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	start := time.Now()

	identity, err := s.resolve(ctx, input)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.failLogin(ctx, "unknown identity")
			return nil, errInvalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve identity")
	}

	if !identity.IsActive {
		s.failLogin(ctx, "identity disabled")
		return nil, errInvalidCredentials()
	}

	if !s.hasher.Verify(input.Password, identity.PasswordHash) {
		s.failLogin(ctx, "bad credential")
		return nil, errInvalidCredentials()
	}

	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	// Advisory timestamp; a failed write never fails the login.
	if err := s.store.TouchLastLogin(ctx, identity.ID, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "failed to stamp last login",
			"identity_id", identity.ID,
			"error", err,
		)
	}

	if s.metrics != nil {
		s.metrics.LoginSuccess.Inc()
		s.metrics.ObserveLogin(start)
	}
	return &LoginResult{AccessToken: token}, nil
}

// resolve picks the identity by the documented priority order.
func (s *Service) resolve(ctx context.Context, input LoginInput) (*models.Identity, error) {
	var lookup models.Lookup
	switch {
	case strings.TrimSpace(input.Email) != "":
		lookup.Email = strings.TrimSpace(input.Email)
	case strings.TrimSpace(input.AdminID) != "":
		lookup.AdminID = strings.TrimSpace(input.AdminID)
	case strings.TrimSpace(input.StudentID) != "":
		lookup.StudentID = strings.TrimSpace(input.StudentID)
	case strings.TrimSpace(input.EmployeeID) != "":
		lookup.EmployeeID = strings.TrimSpace(input.EmployeeID)
	default:
		return nil, sentinel.ErrNotFound
	}
	return s.store.FindByAnyIdentifier(ctx, lookup)
}

func (s *Service) failLogin(ctx context.Context, reason string) {
	// The reason stays in the log; the caller always sees the same error.
	s.logger.InfoContext(ctx, "login rejected", "reason", reason)
	if s.metrics != nil {
		s.metrics.LoginFailure.Inc()
	}
}

func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}
