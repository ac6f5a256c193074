package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/atlastours/agency-api/internal/core"
	"github.com/atlastours/agency-api/internal/data/database"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// BookingRepo provides database operations for bookings.
type BookingRepo struct {
	DB *sql.DB
}

// NewBookingRepo creates a new BookingRepo.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{DB: db}
}

const bookingColumnsSQL = `id, reference, package_id, customer_id, travel_date,
	travelers, status, notes, created_at, updated_at`

const (
	bookingGetByIDQuery = `
		SELECT ` + bookingColumnsSQL + `
		FROM bookings
		WHERE id = $1`

	bookingGetByReferenceQuery = `
		SELECT ` + bookingColumnsSQL + `
		FROM bookings
		WHERE reference = $1`
)

// Create inserts a new booking. The caller supplies a pre-generated
// reference and an upserted customer ID alongside the validated request.
func (r *BookingRepo) Create(
	ctx context.Context,
	params core.CreateBookingParams,
) (*model.Booking, error) {
	if params.Req == nil {
		return nil, errors.New("create booking request is required")
	}
	if err := params.Req.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Reference) == "" {
		return nil, errors.New("booking reference is required")
	}
	if strings.TrimSpace(params.CustomerID) == "" {
		return nil, errors.New("customer ID is required")
	}

	var out model.Booking
	if err := r.collectOne(ctx, &out, `
		INSERT INTO bookings (
			reference, package_id, customer_id, travel_date, travelers, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING `+bookingColumnsSQL,
		params.Reference,
		params.PackageID,
		params.CustomerID,
		params.Req.TravelDate.UTC(),
		params.Req.Travelers,
		model.BookingStatusPending,
		params.Req.Notes,
	); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a booking by ID.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return r.getByQuery(ctx, bookingGetByIDQuery, "failed to get booking by ID", id)
}

// GetByReference retrieves a booking by its human-readable reference.
func (r *BookingRepo) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	return r.getByQuery(ctx, bookingGetByReferenceQuery, "failed to get booking by reference", reference)
}

// List retrieves bookings with optional filters and sorting.
func (r *BookingRepo) List(
	ctx context.Context,
	opts model.BookingsListOptions,
) ([]*model.Booking, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(
			"id", "reference", "package_id", "customer_id", "travel_date",
			"travelers", "status", "notes", "created_at", "updated_at",
		),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Status != nil && strings.TrimSpace(*opts.Status) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, strings.ToLower(strings.TrimSpace(*opts.Status))),
		))
	}
	if opts.PackageID != nil && strings.TrimSpace(*opts.PackageID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("package_id", database.Equal, strings.TrimSpace(*opts.PackageID)),
		))
	}
	if opts.CustomerID != nil && strings.TrimSpace(*opts.CustomerID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("customer_id", database.Equal, strings.TrimSpace(*opts.CustomerID)),
		))
	}
	sortCol, sortDir := validateSortOptions(opts.Sort, opts.Dir, map[string]string{
		"created_at":  "created_at",
		"travel_date": "travel_date",
	})
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	query, args := database.BuildListQuery(database.NewListQueryOptions("bookings", queryOpts...))

	var rowsOut []model.Booking
	if err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Booking])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	res := make([]*model.Booking, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdateStatus moves a booking to a new lifecycle status.
func (r *BookingRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status model.BookingStatus,
) (*model.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid booking status %q", status)
	}

	var out model.Booking
	if err := r.collectOne(ctx, &out, `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+bookingColumnsSQL,
		status, id,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

func (r *BookingRepo) getByQuery(
	ctx context.Context,
	q string,
	errMsg string,
	args ...any,
) (*model.Booking, error) {
	var out model.Booking
	if err := r.collectOne(ctx, &out, q, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return &out, nil
}

func (r *BookingRepo) collectOne(
	ctx context.Context,
	dst *model.Booking,
	query string,
	args ...any,
) error {
	return withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Booking])
		if err != nil {
			return err
		}
		*dst = out
		return nil
	})
}
