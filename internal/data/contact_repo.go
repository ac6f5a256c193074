package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// ContactRepo provides database operations for contact messages.
type ContactRepo struct {
	DB *sql.DB
}

// NewContactRepo creates a new ContactRepo.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{DB: db}
}

const contactColumnsSQL = `id, name, email, subject, message, handled, created_at`

const contactListQuery = `
	SELECT ` + contactColumnsSQL + `
	FROM contact_messages
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2`

// Create inserts a new contact message.
func (r *ContactRepo) Create(
	ctx context.Context,
	req *model.CreateContactRequest,
) (*model.ContactMessage, error) {
	if req == nil {
		return nil, errors.New("create contact request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.ContactMessage
	if err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO contact_messages (name, email, subject, message)
			VALUES ($1, $2, $3, $4)
			RETURNING `+contactColumnsSQL,
			strings.TrimSpace(req.Name),
			strings.ToLower(strings.TrimSpace(req.Email)),
			strings.TrimSpace(req.Subject),
			req.Message,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves contact messages with pagination, newest first.
func (r *ContactRepo) List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rowsOut []model.ContactMessage
	if err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, contactListQuery, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}

	res := make([]*model.ContactMessage, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// MarkHandled flags a contact message as handled.
func (r *ContactRepo) MarkHandled(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx,
			`UPDATE contact_messages SET handled = true WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return rows > 0, nil
}
