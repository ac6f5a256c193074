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

// DestinationRepo provides database operations for destinations.
type DestinationRepo struct {
	DB *sql.DB
}

// NewDestinationRepo creates a new DestinationRepo.
func NewDestinationRepo(db *sql.DB) *DestinationRepo {
	return &DestinationRepo{DB: db}
}

const destinationColumnsSQL = `id, name, country, region, blurb, active, image_path, created_at, updated_at`

const destinationGetByIDQuery = `
	SELECT ` + destinationColumnsSQL + `
	FROM destinations
	WHERE id = $1`

// Create inserts a new destination.
func (r *DestinationRepo) Create(
	ctx context.Context,
	req *model.CreateDestinationRequest,
) (*model.Destination, error) {
	if req == nil {
		return nil, errors.New("create destination request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var out model.Destination
	if err := r.collectOne(ctx, &out, `
		INSERT INTO destinations (
			name, country, region, blurb, active, image_path
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING `+destinationColumnsSQL,
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Country),
		req.Region,
		req.Blurb,
		active,
		req.ImagePath,
	); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a destination by ID.
func (r *DestinationRepo) GetByID(ctx context.Context, id string) (*model.Destination, error) {
	var out model.Destination
	if err := r.collectOne(ctx, &out, destinationGetByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDestinationNotFound
		}
		return nil, fmt.Errorf("failed to get destination by ID: %w", err)
	}
	return &out, nil
}

// List retrieves destinations with optional filters and sorting.
func (r *DestinationRepo) List(
	ctx context.Context,
	opts model.DestinationsListOptions,
) ([]*model.Destination, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	query, args := database.BuildListQuery(r.buildListQueryOptions(opts, limit, offset))

	var rowsOut []model.Destination
	if err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Destination])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}

	res := make([]*model.Destination, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a destination.
func (r *DestinationRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateDestinationRequest,
) (*model.Destination, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 7)
	args := make([]any, 0, 7)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Country != nil {
		setParts = append(setParts, fmt.Sprintf("country = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Country))
	}
	if req.Region != nil {
		setParts = append(setParts, fmt.Sprintf("region = $%d", nextIdx()))
		args = append(args, *req.Region)
	}
	if req.Blurb != nil {
		setParts = append(setParts, fmt.Sprintf("blurb = $%d", nextIdx()))
		args = append(args, *req.Blurb)
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

	args = append(args, id)
	query := "UPDATE destinations SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + destinationColumnsSQL

	var out model.Destination
	if err := r.collectOne(ctx, &out, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDestinationNotFound
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete deletes a destination by ID.
func (r *DestinationRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM destinations WHERE id = $1`, id)
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

func destinationColumns() []string {
	return []string{
		"id", "name", "country", "region", "blurb",
		"active", "image_path", "created_at", "updated_at",
	}
}

func (r *DestinationRepo) buildListQueryOptions(
	opts model.DestinationsListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(destinationColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("name", database.ILike, "%"+strings.TrimSpace(*opts.Q)+"%"),
		))
	}
	if opts.Country != nil && strings.TrimSpace(*opts.Country) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("country", database.Equal, strings.TrimSpace(*opts.Country)),
		))
	}
	if opts.Active != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("active", database.Equal, *opts.Active),
		))
	}

	sortCol, sortDir := validateSortOptions(opts.Sort, opts.Dir, map[string]string{
		"name":       "name",
		"country":    "country",
		"created_at": "created_at",
	})
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	return database.NewListQueryOptions("destinations", queryOpts...)
}

func (r *DestinationRepo) collectOne(
	ctx context.Context,
	dst *model.Destination,
	query string,
	args ...any,
) error {
	return withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Destination])
		if err != nil {
			return err
		}
		*dst = out
		return nil
	})
}
