// Package service orchestrates the identity lifecycle: provisioning,
// profile updates, biometric registration, password resets and deletion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/identity/metrics"
	"rollcall/internal/identity/models"
	"rollcall/internal/institution"
	"rollcall/internal/notification"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

// Conflict responses never echo which field matched, to avoid identifier
// enumeration.
const conflictMessage = "email, phone or ID already registered"

// Store is the identity persistence surface the service depends on. Insert
// and Update must enforce the joint uniqueness invariant atomically and
// report violations as sentinel.ErrConflict.
type Store interface {
	Insert(ctx context.Context, identity *models.Identity) error
	FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	FindByAnyIdentifier(ctx context.Context, lookup models.Lookup) (*models.Identity, error)
	Update(ctx context.Context, identity *models.Identity) error
	List(ctx context.Context) ([]*models.Identity, error)
	Delete(ctx context.Context, identityID id.IdentityID) error
}

// Hasher is the one-way credential hashing surface.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TemplateCipher is the reversible encryption surface for biometric
// templates.
type TemplateCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// PasswordGenerator produces initial passwords for provisioned accounts.
type PasswordGenerator interface {
	Generate() (string, error)
}

// Service coordinates the identity store, crypto helpers and the
// notification collaborator. Persistence always completes before the
// corresponding notification is dispatched; notification failures are
// logged, never raised.
type Service struct {
	store        Store
	hasher       Hasher
	cipher       TemplateCipher
	passwords    PasswordGenerator
	institutions institution.Lookup
	notifier     notification.Sender
	logger       *slog.Logger
	metrics      *metrics.Metrics
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
func New(store Store, hasher Hasher, cipher TemplateCipher, passwords PasswordGenerator,
	institutions institution.Lookup, notifier notification.Sender, opts ...Option) *Service {
	s := &Service{
		store:        store,
		hasher:       hasher,
		cipher:       cipher,
		passwords:    passwords,
		institutions: institutions,
		notifier:     notifier,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create provisions a new identity. When selfRegistered is true the input
// password already carries the digest produced by the authentication
// service and a registration-success notification is sent; otherwise an
// initial password is generated, hashed and delivered once in the welcome
// notification.
func (s *Service) Create(ctx context.Context, input models.CreateInput, selfRegistered bool) (*models.Identity, error) {
	start := time.Now()

	identity, err := s.buildIdentity(ctx, input, selfRegistered)
	if err != nil {
		return nil, err
	}

	plaintext := ""
	if selfRegistered {
		identity.PasswordHash = input.Password
	} else {
		plaintext, err = s.passwords.Generate()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate initial password")
		}
		identity.PasswordHash, err = s.hasher.Hash(plaintext)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash initial password")
		}
	}

	// Advisory pre-check for a friendly error. The Insert below is the
	// correctness mechanism; a race between the check and the write still
	// surfaces as a store-level conflict.
	lookup := models.Lookup{Email: identity.Email, Phone: identity.Phone}
	switch identity.Role {
	case models.RoleAdmin:
		lookup.AdminID = identity.AdminID
	case models.RoleEmployee:
		lookup.EmployeeID = identity.EmployeeID
	case models.RoleStudent:
		lookup.StudentID = identity.StudentID
	}
	if _, err := s.store.FindByAnyIdentifier(ctx, lookup); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, conflictMessage)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for existing identity")
	}

	if err := s.store.Insert(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, conflictMessage)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist identity")
	}

	if selfRegistered {
		s.notify(ctx, "registration success", identity, func() error {
			return s.notifier.SendRegistrationSuccess(ctx, identity.Email, identity.FirstName)
		})
	} else {
		creds := notification.Credentials{
			Identifier: identity.RoleIdentifier(),
			Email:      identity.Email,
			Password:   plaintext,
		}
		s.notify(ctx, "welcome", identity, func() error {
			return s.notifier.SendWelcome(ctx, identity.Email, identity.FirstName, creds)
		})
	}

	if s.metrics != nil {
		s.metrics.IdentitiesCreated.Inc()
		s.metrics.ObserveCreate(start)
	}
	return identity, nil
}

// BulkCreate provisions identities sequentially in list order with
// admin-provisioned semantics for every entry. The batch is not atomic: on
// the first failure the operation stops and returns the entries already
// persisted alongside the error.
func (s *Service) BulkCreate(ctx context.Context, inputs []models.CreateInput) ([]*models.Identity, error) {
	if s.metrics != nil {
		s.metrics.BulkCreateSize.Observe(float64(len(inputs)))
	}

	created := make([]*models.Identity, 0, len(inputs))
	for i, input := range inputs {
		identity, err := s.Create(ctx, input, false)
		if err != nil {
			s.logger.WarnContext(ctx, "bulk provisioning stopped",
				"failed_index", i,
				"persisted", len(created),
				"error", err,
			)
			return created, err
		}
		created = append(created, identity)
	}
	return created, nil
}

// Update applies a partial profile patch. Role, identifiers and password
// never change through this path.
func (s *Service) Update(ctx context.Context, identityID id.IdentityID, patch models.UpdatePatch) (*models.Identity, error) {
	identity, err := s.load(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if patch.FirstName != nil {
		identity.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		identity.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		identity.Phone = *patch.Phone
	}
	if patch.IsActive != nil {
		identity.IsActive = *patch.IsActive
	}
	identity.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, identity); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, conflictMessage)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update identity")
		}
	}
	return identity, nil
}

// RegisterBiometric encrypts and stores the supplied templates. Each
// modality overwrites its previous ciphertext, so re-registration is
// idempotent per modality.
func (s *Service) RegisterBiometric(ctx context.Context, identityID id.IdentityID, input models.BiometricInput) (*models.Identity, error) {
	if input.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one biometric template is required")
	}

	identity, err := s.load(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if input.Fingerprint != "" {
		identity.FingerprintTemplate, err = s.cipher.Encrypt(input.Fingerprint)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt fingerprint template")
		}
	}
	if input.Face != "" {
		identity.FaceTemplate, err = s.cipher.Encrypt(input.Face)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt face template")
		}
	}
	identity.IsBiometricRegistered = true
	identity.UpdatedAt = time.Now()

	if err := s.persist(ctx, identity); err != nil {
		return nil, err
	}

	s.notify(ctx, "biometric confirmation", identity, func() error {
		return s.notifier.SendBiometricConfirmation(ctx, identity.Email, identity.FirstName)
	})
	if s.metrics != nil {
		s.metrics.BiometricsRegistered.Inc()
	}
	return identity, nil
}

// UpdatePassword hashes and stores a new password. It does not require the
// old one: the route is reachable only with a valid bearer token, and that
// authorization is the trust boundary here.
func (s *Service) UpdatePassword(ctx context.Context, identityID id.IdentityID, newPassword string) error {
	identity, err := s.load(ctx, identityID)
	if err != nil {
		return err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return dErrors.New(dErrors.CodeValidation, "new password is not acceptable")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	identity.PasswordHash = digest
	identity.IsPasswordChanged = true
	identity.UpdatedAt = time.Now()

	if err := s.persist(ctx, identity); err != nil {
		return err
	}

	s.notify(ctx, "password change confirmation", identity, func() error {
		return s.notifier.SendPasswordChangeConfirmation(ctx, identity.Email, identity.FirstName)
	})
	if s.metrics != nil {
		s.metrics.PasswordsChanged.Inc()
	}
	return nil
}

// GetByID fetches a single identity.
func (s *Service) GetByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	return s.load(ctx, identityID)
}

// List returns all identities.
func (s *Service) List(ctx context.Context) ([]*models.Identity, error) {
	identities, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}
	return identities, nil
}

// Delete removes an identity permanently.
func (s *Service) Delete(ctx context.Context, identityID id.IdentityID) error {
	if err := s.store.Delete(ctx, identityID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete identity")
	}
	if s.metrics != nil {
		s.metrics.IdentitiesDeleted.Inc()
	}
	return nil
}

func (s *Service) buildIdentity(ctx context.Context, input models.CreateInput, selfRegistered bool) (*models.Identity, error) {
	role, err := models.ParseRole(string(input.Role))
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identifier is required")
	}
	if selfRegistered && input.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	if !input.InstitutionID.IsNil() {
		exists, err := s.institutions.Exists(ctx, input.InstitutionID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check institution")
		}
		if !exists {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
	}

	now := time.Now()
	identity := &models.Identity{
		ID:            id.NewIdentityID(),
		Email:         email,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Role:          role,
		Phone:         strings.TrimSpace(input.Phone),
		IsActive:      true,
		InstitutionID: input.InstitutionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	identity.SetRoleIdentifier(identifier)
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *Service) load(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	identity, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return identity, nil
}

func (s *Service) persist(ctx context.Context, identity *models.Identity) error {
	if err := s.store.Update(ctx, identity); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "identity not found")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, conflictMessage)
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update identity")
		}
	}
	return nil
}

// notify dispatches after persistence and swallows failures: a lost
// notification never rolls back the owning operation.
func (s *Service) notify(ctx context.Context, kind string, identity *models.Identity, send func() error) {
	if err := send(); err != nil {
		s.logger.ErrorContext(ctx, "notification dispatch failed",
			"kind", kind,
			"identity_id", identity.ID,
			"error", err,
		)
	}
}
