package core

import (
	"context"

	"github.com/atlastours/agency-api/internal/domain/model"
)

// PackageRepository defines the interface for tour package data operations.
type PackageRepository interface {
	Create(ctx context.Context, req *model.CreatePackageRequest) (*model.TourPackage, error)
	GetByID(ctx context.Context, id string) (*model.TourPackage, error)
	List(ctx context.Context, opts model.PackagesListOptions) ([]*model.TourPackage, error)
	Update(ctx context.Context, id string, req model.UpdatePackageRequest) (*model.TourPackage, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// DestinationRepository defines the interface for destination data operations.
type DestinationRepository interface {
	Create(ctx context.Context, req *model.CreateDestinationRequest) (*model.Destination, error)
	GetByID(ctx context.Context, id string) (*model.Destination, error)
	List(ctx context.Context, opts model.DestinationsListOptions) ([]*model.Destination, error)
	Update(ctx context.Context, id string, req model.UpdateDestinationRequest) (*model.Destination, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ServiceRepository defines the interface for agency service data operations.
type ServiceRepository interface {
	Create(ctx context.Context, req *model.CreateServiceRequest) (*model.AgencyService, error)
	GetByID(ctx context.Context, id string) (*model.AgencyService, error)
	List(ctx context.Context, opts model.ServicesListOptions) ([]*model.AgencyService, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateBookingParams groups parameters for BookingRepository.Create.
type CreateBookingParams struct {
	Reference  string
	PackageID  string
	CustomerID string
	Req        *model.CreateBookingRequest
}

// BookingRepository defines the interface for booking data operations.
type BookingRepository interface {
	Create(ctx context.Context, params CreateBookingParams) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByReference(ctx context.Context, reference string) (*model.Booking, error)
	List(ctx context.Context, opts model.BookingsListOptions) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
}

// CustomerRepository defines the interface for customer data operations.
// UpsertByEmail keeps one row per email address across repeat bookings.
type CustomerRepository interface {
	UpsertByEmail(ctx context.Context, req *model.UpsertCustomerRequest) (*model.Customer, error)
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, opts model.CustomersListOptions) ([]*model.Customer, error)
}

// ContactRepository defines the interface for contact message data operations.
type ContactRepository interface {
	Create(ctx context.Context, req *model.CreateContactRequest) (*model.ContactMessage, error)
	List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error)
	MarkHandled(ctx context.Context, id string) (bool, error)
}
