package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlastours/agency-api/internal/core"
	"github.com/atlastours/agency-api/internal/data"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// stubBookingRepo serves a scripted sequence of Create outcomes.
type stubBookingRepo struct {
	createErrs  []error // consumed one per Create call; nil entry means success
	createCalls int
	bookings    map[string]*model.Booking
}

func newStubBookingRepo(createErrs ...error) *stubBookingRepo {
	return &stubBookingRepo{
		createErrs: createErrs,
		bookings:   make(map[string]*model.Booking),
	}
}

func (r *stubBookingRepo) Create(_ context.Context, params core.CreateBookingParams) (*model.Booking, error) {
	r.createCalls++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	booking := &model.Booking{
		ID:         "bkg-1",
		Reference:  params.Reference,
		PackageID:  params.PackageID,
		CustomerID: params.CustomerID,
		TravelDate: params.Req.TravelDate,
		Travelers:  params.Req.Travelers,
		Status:     model.BookingStatusPending,
	}
	r.bookings[booking.ID] = booking
	return booking, nil
}

func (r *stubBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if booking, ok := r.bookings[id]; ok {
		return booking, nil
	}
	return nil, data.ErrBookingNotFound
}

func (r *stubBookingRepo) GetByReference(_ context.Context, reference string) (*model.Booking, error) {
	for _, booking := range r.bookings {
		if booking.Reference == reference {
			return booking, nil
		}
	}
	return nil, data.ErrBookingNotFound
}

func (r *stubBookingRepo) List(context.Context, model.BookingsListOptions) ([]*model.Booking, error) {
	out := make([]*model.Booking, 0, len(r.bookings))
	for _, booking := range r.bookings {
		out = append(out, booking)
	}
	return out, nil
}

func (r *stubBookingRepo) UpdateStatus(_ context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	booking, ok := r.bookings[id]
	if !ok {
		return nil, data.ErrBookingNotFound
	}
	booking.Status = status
	return booking, nil
}

type stubCustomerRepo struct {
	upsertErr error
}

func (r *stubCustomerRepo) UpsertByEmail(_ context.Context, req *model.UpsertCustomerRequest) (*model.Customer, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	return &model.Customer{ID: "cust-1", FullName: req.FullName, Email: req.Email}, nil
}

func (r *stubCustomerRepo) GetByID(context.Context, string) (*model.Customer, error) {
	return nil, data.ErrCustomerNotFound
}

func (r *stubCustomerRepo) List(context.Context, model.CustomersListOptions) ([]*model.Customer, error) {
	return nil, nil
}

type stubContactRepo struct {
	messages []*model.ContactMessage
}

func (r *stubContactRepo) Create(_ context.Context, req *model.CreateContactRequest) (*model.ContactMessage, error) {
	msg := &model.ContactMessage{
		ID:      "msg-1",
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

func (r *stubContactRepo) List(context.Context, int, int) ([]*model.ContactMessage, error) {
	return r.messages, nil
}

func (r *stubContactRepo) MarkHandled(_ context.Context, id string) (bool, error) {
	for _, msg := range r.messages {
		if msg.ID == id {
			msg.Handled = true
			return true, nil
		}
	}
	return false, nil
}

type bookingFixture struct {
	service   *BookingService
	bookings  *stubBookingRepo
	customers *stubCustomerRepo
	packages  *stubPackageRepo
	contact   *stubContactRepo
}

func newBookingFixture(t *testing.T, bookings *stubBookingRepo) *bookingFixture {
	t.Helper()

	packages := &stubPackageRepo{
		rows: []*model.TourPackage{
			{ID: "pkg-1", Title: "Sahara Caravan", Active: true},
			{ID: "pkg-2", Title: "Retired Special", Active: false},
		},
	}
	customers := &stubCustomerRepo{}
	contact := &stubContactRepo{}

	// Zero backoff keeps retry tests instant.
	svc, err := NewBookingService(BookingServiceOptions{
		Bookings:  bookings,
		Customers: customers,
		Packages:  packages,
		Contact:   contact,
		Config:    &BookingConfig{WriteAttempts: 2, RetryBackoff: 0},
	})
	require.NoError(t, err)

	return &bookingFixture{
		service:   svc,
		bookings:  bookings,
		customers: customers,
		packages:  packages,
		contact:   contact,
	}
}

func validBookingSubmission() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		PackageID:     "pkg-1",
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "Ada@Example.com",
		TravelDate:    time.Now().AddDate(0, 1, 0),
		Travelers:     2,
	}
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	booking, err := f.service.CreateBooking(context.Background(), validBookingSubmission())
	require.NoError(t, err)
	assert.Equal(t, "pkg-1", booking.PackageID)
	assert.Equal(t, "cust-1", booking.CustomerID)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.True(t, strings.HasPrefix(booking.Reference, "ATB-"))
	assert.Equal(t, 1, f.bookings.createCalls)
}

func TestBookingService_CreateBooking_RetriesTransientFailureOnce(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo(errors.New("connection reset"), nil))

	booking, err := f.service.CreateBooking(context.Background(), validBookingSubmission())
	require.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Equal(t, 2, f.bookings.createCalls)
}

func TestBookingService_CreateBooking_GivesUpAfterTwoAttempts(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo(
		errors.New("connection reset"),
		errors.New("connection reset"),
	))

	_, err := f.service.CreateBooking(context.Background(), validBookingSubmission())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Contains(t, err.Error(), "contact us directly")
	assert.Equal(t, 2, f.bookings.createCalls)
}

func TestBookingService_CreateBooking_NoRetryOnDefinitiveFailure(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo(
		apperrors.Conflict("a booking with this reference already exists"),
	))

	_, err := f.service.CreateBooking(context.Background(), validBookingSubmission())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 1, f.bookings.createCalls, "definitive failures are not retried")
}

func TestBookingService_CreateBooking_ValidationBeforeAnyWrite(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	req := validBookingSubmission()
	req.Travelers = 0

	_, err := f.service.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, f.bookings.createCalls)
}

func TestBookingService_CreateBooking_RejectsUnknownPackage(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	req := validBookingSubmission()
	req.PackageID = "pkg-missing"

	_, err := f.service.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "package_id", apperrors.GetField(err))
}

func TestBookingService_CreateBooking_RejectsInactivePackage(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	req := validBookingSubmission()
	req.PackageID = "pkg-2"

	_, err := f.service.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBookingService_CreateBooking_NormalizesCustomerEmail(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	req := validBookingSubmission()
	_, err := f.service.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", req.CustomerEmail)
}

func TestBookingService_UpdateBookingStatus(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	booking, err := f.service.CreateBooking(context.Background(), validBookingSubmission())
	require.NoError(t, err)

	updated, err := f.service.UpdateBookingStatus(context.Background(), booking.ID, " Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, updated.Status)

	_, err = f.service.UpdateBookingStatus(context.Background(), booking.ID, "archived")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBookingService_GetBookingByReference(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	booking, err := f.service.CreateBooking(context.Background(), validBookingSubmission())
	require.NoError(t, err)

	found, err := f.service.GetBookingByReference(context.Background(), strings.ToLower(booking.Reference))
	require.NoError(t, err)
	assert.Equal(t, booking.ID, found.ID)

	_, err = f.service.GetBookingByReference(context.Background(), "ATB-NOPE1234")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBookingService_SubmitContact(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	msg, err := f.service.SubmitContact(context.Background(), &model.CreateContactRequest{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Subject: "Booking help",
		Message: "My booking submission keeps failing.",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msg.ID)

	require.NoError(t, f.service.MarkContactHandled(context.Background(), msg.ID))
	assert.True(t, f.contact.messages[0].Handled)

	err = f.service.MarkContactHandled(context.Background(), "msg-missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBookingService_SubmitContact_Validation(t *testing.T) {
	f := newBookingFixture(t, newStubBookingRepo())

	_, err := f.service.SubmitContact(context.Background(), &model.CreateContactRequest{
		Name: "Ada Lovelace",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, len(f.contact.messages))
}

func TestNewBookingReference_Shape(t *testing.T) {
	seen := make(map[string]bool)
	for range 32 {
		ref := NewBookingReference()
		assert.Len(t, ref, 12)
		assert.True(t, strings.HasPrefix(ref, "ATB-"))
		assert.Equal(t, strings.ToUpper(ref), ref)
		assert.False(t, seen[ref], "references must not repeat")
		seen[ref] = true
	}
}
