package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/atlastours/agency-api/internal/data/database"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// CustomerRepo provides database operations for customers.
type CustomerRepo struct {
	DB *sql.DB
}

// NewCustomerRepo creates a new CustomerRepo.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{DB: db}
}

const customerColumnsSQL = `id, full_name, email, phone, created_at, updated_at`

const customerGetByIDQuery = `
	SELECT ` + customerColumnsSQL + `
	FROM customers
	WHERE id = $1`

// UpsertByEmail creates a customer or refreshes the existing row keyed by
// email. Name and phone from the latest submission win.
func (r *CustomerRepo) UpsertByEmail(
	ctx context.Context,
	req *model.UpsertCustomerRequest,
) (*model.Customer, error) {
	if req == nil {
		return nil, errors.New("upsert customer request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Customer
	if err := r.collectOne(ctx, &out, `
		INSERT INTO customers (full_name, email, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = COALESCE(EXCLUDED.phone, customers.phone),
			updated_at = now()
		RETURNING `+customerColumnsSQL,
		strings.TrimSpace(req.FullName),
		req.Email,
		req.Phone,
	); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var out model.Customer
	if err := r.collectOne(ctx, &out, customerGetByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by ID: %w", err)
	}
	return &out, nil
}

// List retrieves customers with optional filters and sorting.
func (r *CustomerRepo) List(
	ctx context.Context,
	opts model.CustomersListOptions,
) ([]*model.Customer, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns("id", "full_name", "email", "phone", "created_at", "updated_at"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		pattern := "%" + strings.TrimSpace(*opts.Q) + "%"
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(full_name ILIKE $1 OR email ILIKE $1)", pattern),
		))
	}
	sortCol, sortDir := validateSortOptions(opts.Sort, opts.Dir, map[string]string{
		"full_name":  "full_name",
		"created_at": "created_at",
	})
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	query, args := database.BuildListQuery(database.NewListQueryOptions("customers", queryOpts...))

	var rowsOut []model.Customer
	if err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Customer])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	res := make([]*model.Customer, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

func (r *CustomerRepo) collectOne(
	ctx context.Context,
	dst *model.Customer,
	query string,
	args ...any,
) error {
	return withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
		if err != nil {
			return err
		}
		*dst = out
		return nil
	})
}
