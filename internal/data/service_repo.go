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

// ServiceRepo provides database operations for agency services.
type ServiceRepo struct {
	DB *sql.DB
}

// NewServiceRepo creates a new ServiceRepo.
func NewServiceRepo(db *sql.DB) *ServiceRepo {
	return &ServiceRepo{DB: db}
}

const serviceColumnsSQL = `id, name, description, category, price_cents, active, created_at, updated_at`

const serviceGetByIDQuery = `
	SELECT ` + serviceColumnsSQL + `
	FROM services
	WHERE id = $1`

// Create inserts a new agency service.
func (r *ServiceRepo) Create(
	ctx context.Context,
	req *model.CreateServiceRequest,
) (*model.AgencyService, error) {
	if req == nil {
		return nil, errors.New("create service request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var out model.AgencyService
	if err := r.collectOne(ctx, &out, `
		INSERT INTO services (
			name, description, category, price_cents, active
		) VALUES (
			$1, $2, $3, $4, $5
		) RETURNING `+serviceColumnsSQL,
		strings.TrimSpace(req.Name),
		req.Description,
		req.Category,
		req.PriceCents,
		active,
	); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves an agency service by ID.
func (r *ServiceRepo) GetByID(ctx context.Context, id string) (*model.AgencyService, error) {
	var out model.AgencyService
	if err := r.collectOne(ctx, &out, serviceGetByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service by ID: %w", err)
	}
	return &out, nil
}

// List retrieves agency services with optional filters and sorting.
func (r *ServiceRepo) List(
	ctx context.Context,
	opts model.ServicesListOptions,
) ([]*model.AgencyService, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(
			"id", "name", "description", "category",
			"price_cents", "active", "created_at", "updated_at",
		),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Category != nil && strings.TrimSpace(*opts.Category) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("category", database.Equal, strings.ToLower(strings.TrimSpace(*opts.Category))),
		))
	}
	if opts.Active != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("active", database.Equal, *opts.Active),
		))
	}
	sortCol, sortDir := validateSortOptions(opts.Sort, opts.Dir, map[string]string{
		"name":       "name",
		"created_at": "created_at",
	})
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	query, args := database.BuildListQuery(database.NewListQueryOptions("services", queryOpts...))

	var rowsOut []model.AgencyService
	if err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AgencyService])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	res := make([]*model.AgencyService, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Delete deletes an agency service by ID.
func (r *ServiceRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
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

func (r *ServiceRepo) collectOne(
	ctx context.Context,
	dst *model.AgencyService,
	query string,
	args ...any,
) error {
	return withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AgencyService])
		if err != nil {
			return err
		}
		*dst = out
		return nil
	})
}
