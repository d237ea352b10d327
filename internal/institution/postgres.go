package institution

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "rollcall/pkg/domain"
)

// PostgresLookup resolves institution existence against the institutions
// table owned by the institution service.
type PostgresLookup struct {
	db *sql.DB
}

// NewPostgresLookup constructs a PostgreSQL-backed lookup.
func NewPostgresLookup(db *sql.DB) *PostgresLookup {
	return &PostgresLookup{db: db}
}

func (l *PostgresLookup) Exists(ctx context.Context, institutionID id.InstitutionID) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM institutions WHERE id = $1)`,
		uuid.UUID(institutionID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check institution exists: %w", err)
	}
	return exists, nil
}
