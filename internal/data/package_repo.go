package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/atlastours/agency-api/internal/data/database"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// PackageRepo provides database operations for tour packages.
type PackageRepo struct {
	DB *sql.DB
}

// NewPackageRepo creates a new PackageRepo.
func NewPackageRepo(db *sql.DB) *PackageRepo {
	return &PackageRepo{DB: db}
}

const packageColumnsSQL = `id, title, summary, destination_id, price_cents, currency,
	duration_days, max_travelers, featured, active, image_path, created_at, updated_at`

const packageGetByIDQuery = `
	SELECT ` + packageColumnsSQL + `
	FROM packages
	WHERE id = $1`

// Create inserts a new tour package.
func (r *PackageRepo) Create(
	ctx context.Context,
	req *model.CreatePackageRequest,
) (*model.TourPackage, error) {
	if req == nil {
		return nil, errors.New("create package request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Defaults match the DB column defaults.
	featured := false
	if req.Featured != nil {
		featured = *req.Featured
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	maxTravelers := req.MaxTravelers
	if maxTravelers == 0 {
		maxTravelers = 20
	}

	var out model.TourPackage
	if err := r.collectOne(ctx, &out, `
		INSERT INTO packages (
			title, summary, destination_id, price_cents, currency,
			duration_days, max_travelers, featured, active, image_path
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING `+packageColumnsSQL,
		strings.TrimSpace(req.Title),
		req.Summary,
		req.DestinationID,
		req.PriceCents,
		req.Currency,
		req.DurationDays,
		maxTravelers,
		featured,
		active,
		req.ImagePath,
	); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a tour package by ID.
func (r *PackageRepo) GetByID(ctx context.Context, id string) (*model.TourPackage, error) {
	var out model.TourPackage
	if err := r.collectOne(ctx, &out, packageGetByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package by ID: %w", err)
	}
	return &out, nil
}

// List retrieves tour packages with optional filters and sorting.
func (r *PackageRepo) List(
	ctx context.Context,
	opts model.PackagesListOptions,
) ([]*model.TourPackage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	query, args := database.BuildListQuery(r.buildListQueryOptions(opts, limit, offset))

	var rowsOut []model.TourPackage
	if err := r.withConn(ctx, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.TourPackage])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	res := make([]*model.TourPackage, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a tour package.
func (r *PackageRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdatePackageRequest,
) (*model.TourPackage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setClause, args := r.buildUpdateClause(req)
	args = append(args, id)
	query := "UPDATE packages SET " + setClause +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + packageColumnsSQL

	var out model.TourPackage
	if err := r.collectOne(ctx, &out, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete deletes a tour package by ID.
func (r *PackageRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := r.withConn(ctx, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
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

// buildUpdateClause builds the SQL SET clause and args from the request.
// Validate guarantees at least one field is set.
func (r *PackageRepo) buildUpdateClause(req model.UpdatePackageRequest) (string, []any) {
	setParts := make([]string, 0, 11)
	args := make([]any, 0, 11)
	nextIdx := func() int { return len(args) + 1 }

	if req.Title != nil {
		setParts = append(setParts, fmt.Sprintf("title = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Title))
	}
	if req.Summary != nil {
		setParts = append(setParts, fmt.Sprintf("summary = $%d", nextIdx()))
		args = append(args, *req.Summary)
	}
	if req.DestinationID != nil {
		if strings.TrimSpace(*req.DestinationID) == "" {
			setParts = append(setParts, "destination_id = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("destination_id = $%d", nextIdx()))
			args = append(args, *req.DestinationID)
		}
	}
	if req.PriceCents != nil {
		setParts = append(setParts, fmt.Sprintf("price_cents = $%d", nextIdx()))
		args = append(args, *req.PriceCents)
	}
	if req.Currency != nil {
		setParts = append(setParts, fmt.Sprintf("currency = $%d", nextIdx()))
		args = append(args, *req.Currency)
	}
	if req.DurationDays != nil {
		setParts = append(setParts, fmt.Sprintf("duration_days = $%d", nextIdx()))
		args = append(args, *req.DurationDays)
	}
	if req.MaxTravelers != nil {
		setParts = append(setParts, fmt.Sprintf("max_travelers = $%d", nextIdx()))
		args = append(args, *req.MaxTravelers)
	}
	if req.Featured != nil {
		setParts = append(setParts, fmt.Sprintf("featured = $%d", nextIdx()))
		args = append(args, *req.Featured)
	}
	if req.Active != nil {
		setParts = append(setParts, fmt.Sprintf("active = $%d", nextIdx()))
		args = append(args, *req.Active)
	}
	if req.ImagePath != nil {
		setParts = append(setParts, fmt.Sprintf("image_path = $%d", nextIdx()))
		args = append(args, *req.ImagePath)
	}

	setParts = append(setParts, "updated_at = now()")
	return strings.Join(setParts, ", "), args
}

// packageColumns returns the column list for dynamic package list queries.
func packageColumns() []string {
	return []string{
		"id",
		"title",
		"summary",
		"destination_id",
		"price_cents",
		"currency",
		"duration_days",
		"max_travelers",
		"featured",
		"active",
		"image_path",
		"created_at",
		"updated_at",
	}
}

func (r *PackageRepo) buildListQueryOptions(
	opts model.PackagesListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(packageColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("title", database.ILike, "%"+strings.TrimSpace(*opts.Q)+"%"),
		))
	}
	if opts.DestinationID != nil && strings.TrimSpace(*opts.DestinationID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("destination_id", database.Equal, strings.TrimSpace(*opts.DestinationID)),
		))
	}
	if opts.Featured != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("featured", database.Equal, *opts.Featured),
		))
	}
	if opts.Active != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("active", database.Equal, *opts.Active),
		))
	}

	sortCol, sortDir := validateSortOptions(opts.Sort, opts.Dir, map[string]string{
		"title":       "title",
		"price_cents": "price_cents",
		"created_at":  "created_at",
	})
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	return database.NewListQueryOptions("packages", queryOpts...)
}

func (r *PackageRepo) withConn(ctx context.Context, fn func(*pgx.Conn) error) error {
	return withPgxConn(ctx, r.DB, fn)
}

func (r *PackageRepo) collectOne(
	ctx context.Context,
	dst *model.TourPackage,
	query string,
	args ...any,
) error {
	return r.withConn(ctx, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.TourPackage])
		if err != nil {
			return err
		}
		*dst = out
		return nil
	})
}
