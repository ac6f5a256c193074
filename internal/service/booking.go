package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlastours/agency-api/internal/core"
	"github.com/atlastours/agency-api/internal/data"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// BookingConfig holds the write retry policy. Writes are never served from
// a degraded tier; a failed write retries once and then surfaces the error.
type BookingConfig struct {
	// WriteAttempts is the total number of attempts per write, including the
	// first one.
	WriteAttempts int
	// RetryBackoff is the pause between attempts.
	RetryBackoff time.Duration
}

// DefaultBookingConfig returns the standard write retry policy.
func DefaultBookingConfig() BookingConfig {
	return BookingConfig{
		WriteAttempts: 2,
		RetryBackoff:  2 * time.Second,
	}
}

// BookingServiceOptions groups dependencies for BookingService.
type BookingServiceOptions struct {
	Bookings  core.BookingRepository
	Customers core.CustomerRepository
	Packages  core.PackageRepository
	Contact   core.ContactRepository
	Config    *BookingConfig
	Logger    *slog.Logger
}

// BookingService handles the public booking funnel and its admin follow-up:
// customer upsert, booking creation with retry, and the contact-message
// channel offered when a submission ultimately fails.
type BookingService struct {
	bookings  core.BookingRepository
	customers core.CustomerRepository
	packages  core.PackageRepository
	contact   core.ContactRepository
	cfg       BookingConfig
	logger    *slog.Logger
}

// NewBookingService constructs a new BookingService.
func NewBookingService(opts BookingServiceOptions) (*BookingService, error) {
	if opts.Bookings == nil {
		return nil, errors.New("BookingRepository is required")
	}
	if opts.Customers == nil {
		return nil, errors.New("CustomerRepository is required")
	}
	if opts.Packages == nil {
		return nil, errors.New("PackageRepository is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		defaultCfg := DefaultBookingConfig()
		opts.Config = &defaultCfg
	}
	if opts.Config.WriteAttempts < 1 {
		opts.Config.WriteAttempts = 1
	}

	return &BookingService{
		bookings:  opts.Bookings,
		customers: opts.Customers,
		packages:  opts.Packages,
		contact:   opts.Contact,
		cfg:       *opts.Config,
		logger:    opts.Logger.With("component", "bookings"),
	}, nil
}

// CreateBooking validates the submission, upserts the customer, and writes
// the booking with the configured retry policy.
func (s *BookingService) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	if req == nil {
		return nil, apperrors.Validation("booking request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	email, err := NormalizeEmail(req.CustomerEmail)
	if err != nil {
		return nil, apperrors.ValidationField("customer_email", "invalid email format")
	}
	req.CustomerEmail = email

	pkg, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, data.ErrPackageNotFound) {
			return nil, apperrors.ValidationField("package_id", "package does not exist")
		}
		return nil, fmt.Errorf("verify package: %w", err)
	}
	if !pkg.Active {
		return nil, apperrors.ValidationField("package_id", "package is not open for booking")
	}

	customer, err := s.customers.UpsertByEmail(ctx, &model.UpsertCustomerRequest{
		FullName: req.CustomerName,
		Email:    req.CustomerEmail,
		Phone:    optionalString(req.CustomerPhone),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}

	params := core.CreateBookingParams{
		Reference:  NewBookingReference(),
		PackageID:  pkg.ID,
		CustomerID: customer.ID,
		Req:        req,
	}

	booking, err := s.createWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		"reference", booking.Reference,
		"package_id", booking.PackageID,
		"travelers", booking.Travelers)

	return booking, nil
}

// createWithRetry performs the booking write with the configured number of
// attempts. Only transient failures are retried; a validation, conflict, or
// foreign key error is definitive and retrying would just repeat it.
func (s *BookingService) createWithRetry(ctx context.Context, params core.CreateBookingParams) (*model.Booking, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.WriteAttempts; attempt++ {
		booking, err := s.bookings.Create(ctx, params)
		if err == nil {
			return booking, nil
		}
		lastErr = err

		if !isRetryableWrite(err) {
			return nil, err
		}
		if attempt == s.cfg.WriteAttempts {
			break
		}

		s.logger.Warn("booking write failed, retrying",
			"reference", params.Reference,
			"attempt", attempt,
			"error", err)

		select {
		case <-time.After(s.cfg.RetryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, apperrors.Wrap(lastErr, apperrors.ErrCodeUnavailable,
		"booking could not be saved, please try again or contact us directly")
}

// isRetryableWrite reports whether a write failure is worth a second attempt.
func isRetryableWrite(err error) bool {
	switch {
	case apperrors.IsValidation(err),
		apperrors.IsConflict(err),
		apperrors.IsForeignKey(err),
		apperrors.IsNotFound(err),
		apperrors.IsCanceled(err):
		return false
	default:
		return true
	}
}

// GetBooking returns a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("booking ID is required")
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrBookingNotFound) {
			return nil, apperrors.NotFound("booking not found")
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// GetBookingByReference returns a booking by its human-readable reference.
func (s *BookingService) GetBookingByReference(ctx context.Context, reference string) (*model.Booking, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if reference == "" {
		return nil, apperrors.Validation("booking reference is required")
	}
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, data.ErrBookingNotFound) {
			return nil, apperrors.NotFound("booking not found")
		}
		return nil, fmt.Errorf("get booking by reference: %w", err)
	}
	return booking, nil
}

// ListBookings lists bookings for the admin dashboard.
func (s *BookingService) ListBookings(ctx context.Context, opts model.BookingsListOptions) ([]*model.Booking, error) {
	bookings, err := s.bookings.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBookingStatus moves a booking through its lifecycle.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id, status string) (*model.Booking, error) {
	parsed, ok := model.ParseBookingStatus(status)
	if !ok {
		return nil, apperrors.ValidationField("status", "unsupported booking status")
	}
	booking, err := s.bookings.UpdateStatus(ctx, id, parsed)
	if err != nil {
		if errors.Is(err, data.ErrBookingNotFound) {
			return nil, apperrors.NotFound("booking not found")
		}
		return nil, err
	}
	return booking, nil
}

// ListCustomers lists customers for the admin dashboard.
func (s *BookingService) ListCustomers(ctx context.Context, opts model.CustomersListOptions) ([]*model.Customer, error) {
	customers, err := s.customers.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// SubmitContact records a contact message. This is the manual channel
// offered when the booking funnel fails; it must stay as dependency-light
// as possible.
func (s *BookingService) SubmitContact(ctx context.Context, req *model.CreateContactRequest) (*model.ContactMessage, error) {
	if s.contact == nil {
		return nil, errors.New("contact repository is not configured")
	}
	if req == nil {
		return nil, apperrors.Validation("contact request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	msg, err := s.contact.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return msg, nil
}

// ListContactMessages lists contact messages, newest first.
func (s *BookingService) ListContactMessages(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error) {
	if s.contact == nil {
		return nil, errors.New("contact repository is not configured")
	}
	messages, err := s.contact.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

// MarkContactHandled flags a contact message as dealt with.
func (s *BookingService) MarkContactHandled(ctx context.Context, id string) error {
	if s.contact == nil {
		return errors.New("contact repository is not configured")
	}
	ok, err := s.contact.MarkHandled(ctx, id)
	if err != nil {
		return fmt.Errorf("mark contact handled: %w", err)
	}
	if !ok {
		return apperrors.NotFound("contact message not found")
	}
	return nil
}

// NewBookingReference generates a short human-readable booking code.
func NewBookingReference() string {
	id := uuid.New()
	return "ATB-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
