// Package pgroles resolves admin role assignments from the admin_roles table.
package pgroles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/atlastours/agency-api/internal/data/pgxutil"
	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
)

// Source implements ports.RoleSource over PostgreSQL.
type Source struct {
	DB *sql.DB
}

// NewSource creates a new role Source.
func NewSource(db *sql.DB) *Source {
	return &Source{DB: db}
}

// RoleFor looks up the role record for a user. A missing row resolves to an
// inactive guest record rather than an error: "no role assigned" is a
// definitive answer, not a lookup failure.
func (s *Source) RoleFor(ctx context.Context, userID string) (domainauth.RoleRecord, error) {
	if userID == "" {
		return domainauth.RoleRecord{Role: domainauth.RoleGuest}, nil
	}

	var record domainauth.RoleRecord
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx,
			`SELECT role, is_active FROM admin_roles WHERE user_id = $1`, userID)
		return row.Scan(&record.Role, &record.IsActive)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.RoleRecord{Role: domainauth.RoleGuest}, nil
		}
		return domainauth.RoleRecord{}, fmt.Errorf("lookup role for user: %w", err)
	}
	return record, nil
}
