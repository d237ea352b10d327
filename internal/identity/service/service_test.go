package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/identity/models"
	"rollcall/internal/identity/store"
	"rollcall/internal/institution"
	"rollcall/internal/notification"
	"rollcall/internal/security/cipher"
	"rollcall/internal/security/hashing"
	"rollcall/internal/security/passgen"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// capturingSender records every notification so tests can assert on the
// one-time credentials without a real delivery channel.
type capturingSender struct {
	welcomes      []notification.Credentials
	registrations []string
	biometrics    []string
	passwords     []string
}

func (c *capturingSender) SendRegistrationSuccess(_ context.Context, email, _ string) error {
	c.registrations = append(c.registrations, email)
	return nil
}

func (c *capturingSender) SendWelcome(_ context.Context, _, _ string, creds notification.Credentials) error {
	c.welcomes = append(c.welcomes, creds)
	return nil
}

func (c *capturingSender) SendBiometricConfirmation(_ context.Context, email, _ string) error {
	c.biometrics = append(c.biometrics, email)
	return nil
}

func (c *capturingSender) SendPasswordChangeConfirmation(_ context.Context, email, _ string) error {
	c.passwords = append(c.passwords, email)
	return nil
}

type fixture struct {
	service  *Service
	store    *store.InMemory
	sender   *capturingSender
	cipher   *cipher.TemplateCipher
	hasher   *hashing.Hasher
	colleges *institution.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	templateCipher, err := cipher.New(testCipherKey)
	require.NoError(t, err)

	f := &fixture{
		store:    store.NewInMemory(),
		sender:   &capturingSender{},
		cipher:   templateCipher,
		hasher:   hashing.New(),
		colleges: institution.NewInMemory(),
	}
	f.service = New(f.store, f.hasher, f.cipher, passgen.New(), f.colleges, f.sender)
	return f
}

func studentInput(email, studentID string) models.CreateInput {
	return models.CreateInput{
		Email:      email,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Role:       models.RoleStudent,
		Identifier: studentID,
	}
}

func TestCreateProvisionedStudent(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), studentInput("ada@example.edu", "S1"), false)
	require.NoError(t, err)

	assert.Equal(t, "ada@example.edu", created.Email)
	assert.Equal(t, models.RoleStudent, created.Role)
	assert.Equal(t, "S1", created.StudentID)
	assert.Empty(t, created.AdminID)
	assert.Empty(t, created.EmployeeID)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsPasswordChanged)
	assert.False(t, created.IsBiometricRegistered)
	assert.Nil(t, created.LastLogin)

	// The welcome notification carries the only copy of the generated
	// password, and it must verify against the stored digest.
	require.Len(t, f.sender.welcomes, 1)
	creds := f.sender.welcomes[0]
	assert.Equal(t, "S1", creds.Identifier)
	assert.Equal(t, "ada@example.edu", creds.Email)
	require.NotEmpty(t, creds.Password)
	assert.True(t, f.hasher.Verify(creds.Password, created.PasswordHash))
	assert.NotEqual(t, creds.Password, created.PasswordHash)
}

func TestCreateNormalizesEmail(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), studentInput("  Ada@Example.EDU ", "S1"), false)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.edu", created.Email)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]models.CreateInput{
		"missing email":      {Role: models.RoleStudent, Identifier: "S1"},
		"missing identifier": {Email: "a@example.edu", Role: models.RoleStudent},
		"unknown role":       {Email: "a@example.edu", Role: models.Role("WIZARD"), Identifier: "W1"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.Create(ctx, input, false)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateDuplicateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, studentInput("ada@example.edu", "S1"), false)
	require.NoError(t, err)

	t.Run("same email different case", func(t *testing.T) {
		_, err := f.service.Create(ctx, studentInput("ADA@EXAMPLE.EDU", "S2"), false)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, conflictMessage, dErrors.MessageOf(err))
	})

	t.Run("same student id", func(t *testing.T) {
		_, err := f.service.Create(ctx, studentInput("grace@example.edu", "S1"), false)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("same value in a different identifier field is allowed", func(t *testing.T) {
		_, err := f.service.Create(ctx, models.CreateInput{
			Email:      "grace@example.edu",
			Role:       models.RoleEmployee,
			Identifier: "S1",
		}, false)
		assert.NoError(t, err)
	})
}

func TestCreateUnknownInstitution(t *testing.T) {
	f := newFixture(t)

	input := studentInput("ada@example.edu", "S1")
	input.InstitutionID = mustParseInstitution(t, "4dbf0c1e-9f1a-4c29-8f76-0d1b2c3d4e5f")

	_, err := f.service.Create(context.Background(), input, false)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Empty(t, f.sender.welcomes)
}

func TestCreateKnownInstitution(t *testing.T) {
	f := newFixture(t)
	institutionID := mustParseInstitution(t, "4dbf0c1e-9f1a-4c29-8f76-0d1b2c3d4e5f")
	f.colleges.Add(institutionID)

	input := studentInput("ada@example.edu", "S1")
	input.InstitutionID = institutionID

	created, err := f.service.Create(context.Background(), input, false)
	require.NoError(t, err)
	assert.Equal(t, institutionID, created.InstitutionID)
}

func TestCreateSelfRegisteredKeepsDigest(t *testing.T) {
	f := newFixture(t)

	digest, err := f.hasher.Hash("chosen-password")
	require.NoError(t, err)

	input := models.CreateInput{
		Email:      "root@example.edu",
		Role:       models.RoleAdmin,
		Identifier: "A1",
		Password:   digest,
	}
	created, err := f.service.Create(context.Background(), input, true)
	require.NoError(t, err)

	assert.Equal(t, digest, created.PasswordHash)
	assert.Empty(t, f.sender.welcomes)
	assert.Equal(t, []string{"root@example.edu"}, f.sender.registrations)
}

func TestBulkCreateStopsOnFirstFailure(t *testing.T) {
	f := newFixture(t)

	inputs := []models.CreateInput{
		studentInput("one@example.edu", "S1"),
		studentInput("one@example.edu", "S2"), // duplicate email
		studentInput("three@example.edu", "S3"),
	}
	created, err := f.service.BulkCreate(context.Background(), inputs)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	require.Len(t, created, 1)
	assert.Equal(t, "one@example.edu", created[0].Email)

	count, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBulkCreateAllSucceed(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.BulkCreate(context.Background(), []models.CreateInput{
		studentInput("one@example.edu", "S1"),
		studentInput("two@example.edu", "S2"),
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Len(t, f.sender.welcomes, 2)
}

func TestUpdateAppliesPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, studentInput("ada@example.edu", "S1"), false)
	require.NoError(t, err)

	first := "Augusta"
	inactive := false
	updated, err := f.service.Update(ctx, created.ID, models.UpdatePatch{
		FirstName: &first,
		IsActive:  &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName) // untouched
	assert.False(t, updated.IsActive)
	assert.Equal(t, models.RoleStudent, updated.Role)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)

	first := "Nobody"
	_, err := f.service.Update(context.Background(), id.NewIdentityID(), models.UpdatePatch{FirstName: &first})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRegisterBiometricEncryptsTemplates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, studentInput("ada@example.edu", "S1"), false)
	require.NoError(t, err)

	updated, err := f.service.RegisterBiometric(ctx, created.ID, models.BiometricInput{Fingerprint: "minutiae-abc"})
	require.NoError(t, err)

	assert.True(t, updated.IsBiometricRegistered)
	assert.Empty(t, updated.FaceTemplate)
	require.NotEmpty(t, updated.FingerprintTemplate)
	assert.NotEqual(t, "minutiae-abc", updated.FingerprintTemplate)

	plaintext, err := f.cipher.Decrypt(updated.FingerprintTemplate)
	require.NoError(t, err)
	assert.Equal(t, "minutiae-abc", plaintext)

	assert.Equal(t, []string{"ada@example.edu"}, f.sender.biometrics)
}

func TestRegisterBiometricOverwritesPerModality(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, studentInput("ada@example.edu", "S1"), false)
	require.NoError(t, err)

	first, err := f.service.RegisterBiometric(ctx, created.ID, models.BiometricInput{Fingerprint: "v1", Face: "face-v1"})
	require.NoError(t, err)

	second, err := f.service.RegisterBiometric(ctx, created.ID, models.BiometricInput{Fingerprint: "v2"})
	require.NoError(t, err)

	got, err := f.cipher.Decrypt(second.FingerprintTemplate)
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	// The untouched modality keeps its previous ciphertext.
	assert.Equal(t, first.FaceTemplate, second.FaceTemplate)
}

func TestRegisterBiometricRequiresTemplate(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RegisterBiometric(context.Background(), id.NewIdentityID(), models.BiometricInput{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, studentInput("ada@example.edu", "S1"), false)
	require.NoError(t, err)
	require.Len(t, f.sender.welcomes, 1)
	initial := f.sender.welcomes[0].Password

	require.NoError(t, f.service.UpdatePassword(ctx, created.ID, "a-brand-new-password"))

	stored, err := f.service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPasswordChanged)
	assert.True(t, f.hasher.Verify("a-brand-new-password", stored.PasswordHash))
	assert.False(t, f.hasher.Verify(initial, stored.PasswordHash))
	assert.Equal(t, []string{"ada@example.edu"}, f.sender.passwords)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, studentInput("ada@example.edu", "S1"), false)
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, created.ID))

	_, err = f.service.GetByID(ctx, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = f.service.Delete(ctx, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, studentInput("b@example.edu", "S1"), false)
	require.NoError(t, err)
	_, err = f.service.Create(ctx, studentInput("a@example.edu", "S2"), false)
	require.NoError(t, err)

	listed, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "b@example.edu", listed[0].Email)
}

func mustParseInstitution(t *testing.T, s string) id.InstitutionID {
	t.Helper()
	v, err := id.ParseInstitutionID(s)
	require.NoError(t, err)
	return v
}
