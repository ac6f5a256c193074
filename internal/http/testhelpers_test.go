package httpx

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlastours/agency-api/internal/catalog"
	"github.com/atlastours/agency-api/internal/core"
	"github.com/atlastours/agency-api/internal/data"
	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
	"github.com/atlastours/agency-api/internal/domain/model"
	mocks "github.com/atlastours/agency-api/internal/mocks/auth"
	"github.com/atlastours/agency-api/internal/service"
	"github.com/atlastours/agency-api/internal/store"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "secret"
)

// newTestAuthService builds a real AuthService over in-memory doubles. The
// role source grants admin to the mock user unless the test rewires it.
func newTestAuthService(t *testing.T) (*service.AuthService, *mocks.StaticRoleSource) {
	t.Helper()

	roleSource := mocks.NewStaticRoleSource(map[string]domainauth.RoleRecord{
		"mock-user-1": {Role: domainauth.RoleAdmin, IsActive: true},
	})
	svc := service.NewAuthService(service.AuthServiceOptions{
		Credentials: mocks.NewMockCredentialsProvider(testEmail, testPassword),
		Sessions:    mocks.NewMemorySessionStore(),
		RoleSource:  roleSource,
	})
	return svc, roleSource
}

// loginTestSession performs a password login and returns the session.
func loginTestSession(t *testing.T, svc *service.AuthService) domainauth.Session {
	t.Helper()

	result, err := svc.Login(context.Background(), service.LoginInput{
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)
	return result.Session
}

// fakePackageRepo is a small in-memory package repository for handler tests.
type fakePackageRepo struct {
	rows    []*model.TourPackage
	listErr error
	nextID  int
}

func (r *fakePackageRepo) Create(_ context.Context, req *model.CreatePackageRequest) (*model.TourPackage, error) {
	r.nextID++
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	pkg := &model.TourPackage{
		ID:           fmt.Sprintf("pkg-%d", r.nextID),
		Title:        req.Title,
		Summary:      req.Summary,
		PriceCents:   req.PriceCents,
		Currency:     req.Currency,
		DurationDays: req.DurationDays,
		Active:       active,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.rows = append(r.rows, pkg)
	return pkg, nil
}

func (r *fakePackageRepo) GetByID(_ context.Context, id string) (*model.TourPackage, error) {
	for _, pkg := range r.rows {
		if pkg.ID == id {
			return pkg, nil
		}
	}
	return nil, data.ErrPackageNotFound
}

func (r *fakePackageRepo) List(context.Context, model.PackagesListOptions) ([]*model.TourPackage, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.rows, nil
}

func (r *fakePackageRepo) Update(_ context.Context, id string, req model.UpdatePackageRequest) (*model.TourPackage, error) {
	pkg, err := r.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		pkg.Title = *req.Title
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}
	pkg.UpdatedAt = time.Now()
	return pkg, nil
}

func (r *fakePackageRepo) Delete(_ context.Context, id string) (bool, error) {
	for i, pkg := range r.rows {
		if pkg.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// newTestCatalogService builds a CatalogService over the fake package repo
// with in-memory cache, store, and the bundled fallback dataset.
func newTestCatalogService(t *testing.T, packages core.PackageRepository) *service.CatalogService {
	t.Helper()

	svc, err := service.NewCatalogService(service.CatalogServiceOptions{
		Packages: packages,
		Cache:    data.NewMemoryCacheRepo(),
		Store:    store.New(),
		Fallback: catalog.NewFallback(),
	})
	require.NoError(t, err)
	return svc
}

// fakeBookingRepo is a small in-memory booking repository for handler tests.
type fakeBookingRepo struct {
	bookings map[string]*model.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, params core.CreateBookingParams) (*model.Booking, error) {
	booking := &model.Booking{
		ID:         "bkg-1",
		Reference:  params.Reference,
		PackageID:  params.PackageID,
		CustomerID: params.CustomerID,
		TravelDate: params.Req.TravelDate,
		Travelers:  params.Req.Travelers,
		Status:     model.BookingStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	r.bookings[booking.ID] = booking
	return booking, nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if booking, ok := r.bookings[id]; ok {
		return booking, nil
	}
	return nil, data.ErrBookingNotFound
}

func (r *fakeBookingRepo) GetByReference(_ context.Context, reference string) (*model.Booking, error) {
	for _, booking := range r.bookings {
		if booking.Reference == reference {
			return booking, nil
		}
	}
	return nil, data.ErrBookingNotFound
}

func (r *fakeBookingRepo) List(context.Context, model.BookingsListOptions) ([]*model.Booking, error) {
	out := make([]*model.Booking, 0, len(r.bookings))
	for _, booking := range r.bookings {
		out = append(out, booking)
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	booking, ok := r.bookings[id]
	if !ok {
		return nil, data.ErrBookingNotFound
	}
	booking.Status = status
	return booking, nil
}

type fakeCustomerRepo struct{}

func (fakeCustomerRepo) UpsertByEmail(_ context.Context, req *model.UpsertCustomerRequest) (*model.Customer, error) {
	return &model.Customer{ID: "cust-1", FullName: req.FullName, Email: req.Email}, nil
}

func (fakeCustomerRepo) GetByID(context.Context, string) (*model.Customer, error) {
	return nil, data.ErrCustomerNotFound
}

func (fakeCustomerRepo) List(context.Context, model.CustomersListOptions) ([]*model.Customer, error) {
	return nil, nil
}

type fakeContactRepo struct {
	messages []*model.ContactMessage
}

func (r *fakeContactRepo) Create(_ context.Context, req *model.CreateContactRequest) (*model.ContactMessage, error) {
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

func (r *fakeContactRepo) List(context.Context, int, int) ([]*model.ContactMessage, error) {
	return r.messages, nil
}

func (r *fakeContactRepo) MarkHandled(_ context.Context, id string) (bool, error) {
	for _, msg := range r.messages {
		if msg.ID == id {
			msg.Handled = true
			return true, nil
		}
	}
	return false, nil
}

// newTestBookingService builds a BookingService over fake repositories with a
// single active package "pkg-1" and zero retry backoff.
func newTestBookingService(t *testing.T, packages core.PackageRepository) *service.BookingService {
	t.Helper()

	svc, err := service.NewBookingService(service.BookingServiceOptions{
		Bookings:  newFakeBookingRepo(),
		Customers: fakeCustomerRepo{},
		Packages:  packages,
		Contact:   &fakeContactRepo{},
		Config:    &service.BookingConfig{WriteAttempts: 2, RetryBackoff: 0},
	})
	require.NoError(t, err)
	return svc
}

func activePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{
		rows: []*model.TourPackage{
			{ID: "pkg-1", Title: "Sahara Caravan", PriceCents: 129900, Currency: "USD", Active: true},
		},
		nextID: 1,
	}
}
