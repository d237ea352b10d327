package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"rollcall/internal/identity/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// Schema is the DDL for the identities table. The five UNIQUE indexes are
// the correctness mechanism for the joint uniqueness invariant; any
// service-level pre-check only exists for friendlier error messages.
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
    id                      UUID PRIMARY KEY,
    email                   TEXT NOT NULL,
    first_name              TEXT NOT NULL DEFAULT '',
    last_name               TEXT NOT NULL DEFAULT '',
    role                    TEXT NOT NULL,
    admin_id                TEXT,
    student_id              TEXT,
    employee_id             TEXT,
    phone                   TEXT,
    password_hash           TEXT NOT NULL,
    is_password_changed     BOOLEAN NOT NULL DEFAULT FALSE,
    is_biometric_registered BOOLEAN NOT NULL DEFAULT FALSE,
    fingerprint_template    TEXT,
    face_template           TEXT,
    is_active               BOOLEAN NOT NULL DEFAULT TRUE,
    last_login              TIMESTAMPTZ,
    institution_id          UUID,
    created_at              TIMESTAMPTZ NOT NULL,
    updated_at              TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS identities_email_key ON identities (LOWER(email));
CREATE UNIQUE INDEX IF NOT EXISTS identities_phone_key ON identities (phone) WHERE phone IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS identities_admin_id_key ON identities (admin_id) WHERE admin_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS identities_student_id_key ON identities (student_id) WHERE student_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS identities_employee_id_key ON identities (employee_id) WHERE employee_id IS NOT NULL;
`

const identityColumns = `id, email, first_name, last_name, role,
	admin_id, student_id, employee_id, phone,
	password_hash, is_password_changed,
	is_biometric_registered, fingerprint_template, face_template,
	is_active, last_login, institution_id, created_at, updated_at`

// Postgres persists identities in PostgreSQL via the pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the identities DDL. Idempotent.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply identities schema: %w", err)
	}
	return nil
}

func (s *Postgres) Insert(ctx context.Context, identity *models.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		uuid.UUID(identity.ID), identity.Email, identity.FirstName, identity.LastName, string(identity.Role),
		nullString(identity.AdminID), nullString(identity.StudentID), nullString(identity.EmployeeID), nullString(identity.Phone),
		identity.PasswordHash, identity.IsPasswordChanged,
		identity.IsBiometricRegistered, nullString(identity.FingerprintTemplate), nullString(identity.FaceTemplate),
		identity.IsActive, nullTime(identity.LastLogin), nullUUID(uuid.UUID(identity.InstitutionID)),
		identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`,
		uuid.UUID(identityID),
	)
	return scanIdentity(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE LOWER(email) = LOWER($1)`,
		email,
	)
	return scanIdentity(row)
}

func (s *Postgres) FindByAnyIdentifier(ctx context.Context, lookup models.Lookup) (*models.Identity, error) {
	if lookup.IsZero() {
		return nil, sentinel.ErrNotFound
	}
	// NULLIF folds unset lookup fields into NULL so they never match.
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+` FROM identities
		WHERE LOWER(email) = LOWER(NULLIF($1, ''))
		   OR admin_id    = NULLIF($2, '')
		   OR student_id  = NULLIF($3, '')
		   OR employee_id = NULLIF($4, '')
		   OR phone       = NULLIF($5, '')
		LIMIT 1`,
		lookup.Email, lookup.AdminID, lookup.StudentID, lookup.EmployeeID, lookup.Phone,
	)
	return scanIdentity(row)
}

func (s *Postgres) Update(ctx context.Context, identity *models.Identity) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE identities SET
			email = $2, first_name = $3, last_name = $4, role = $5,
			admin_id = $6, student_id = $7, employee_id = $8, phone = $9,
			password_hash = $10, is_password_changed = $11,
			is_biometric_registered = $12, fingerprint_template = $13, face_template = $14,
			is_active = $15, last_login = $16, institution_id = $17, updated_at = $18
		WHERE id = $1`,
		uuid.UUID(identity.ID), identity.Email, identity.FirstName, identity.LastName, string(identity.Role),
		nullString(identity.AdminID), nullString(identity.StudentID), nullString(identity.EmployeeID), nullString(identity.Phone),
		identity.PasswordHash, identity.IsPasswordChanged,
		identity.IsBiometricRegistered, nullString(identity.FingerprintTemplate), nullString(identity.FaceTemplate),
		identity.IsActive, nullTime(identity.LastLogin), nullUUID(uuid.UUID(identity.InstitutionID)),
		identity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update identity: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities ORDER BY created_at, email`,
	)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*models.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, identityID id.IdentityID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM identities WHERE id = $1`, uuid.UUID(identityID))
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

func (s *Postgres) TouchLastLogin(ctx context.Context, identityID id.IdentityID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET last_login = $2 WHERE id = $1`,
		uuid.UUID(identityID), at)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*models.Identity, error) {
	var (
		identity    models.Identity
		rowID       uuid.UUID
		role        string
		adminID     sql.NullString
		studentID   sql.NullString
		employeeID  sql.NullString
		phone       sql.NullString
		fingerprint sql.NullString
		face        sql.NullString
		lastLogin   sql.NullTime
		institution uuid.NullUUID
	)
	err := row.Scan(
		&rowID, &identity.Email, &identity.FirstName, &identity.LastName, &role,
		&adminID, &studentID, &employeeID, &phone,
		&identity.PasswordHash, &identity.IsPasswordChanged,
		&identity.IsBiometricRegistered, &fingerprint, &face,
		&identity.IsActive, &lastLogin, &institution,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	identity.ID = id.IdentityID(rowID)
	identity.Role = models.Role(role)
	identity.AdminID = adminID.String
	identity.StudentID = studentID.String
	identity.EmployeeID = employeeID.String
	identity.Phone = phone.String
	identity.FingerprintTemplate = fingerprint.String
	identity.FaceTemplate = face.String
	if lastLogin.Valid {
		t := lastLogin.Time
		identity.LastLogin = &t
	}
	if institution.Valid {
		identity.InstitutionID = id.InstitutionID(institution.UUID)
	}
	return &identity, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
