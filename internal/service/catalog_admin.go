package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atlastours/agency-api/internal/catalog"
	"github.com/atlastours/agency-api/internal/data"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// Admin write path. Writes always go straight to the repository; only the
// read path walks the degraded tiers. Every successful write invalidates the
// cached copy of its collection so the next public read sees the change.

// CreatePackage creates a tour package and invalidates the packages cache.
func (s *CatalogService) CreatePackage(ctx context.Context, req *model.CreatePackageRequest) (*model.TourPackage, error) {
	if s.packages == nil {
		return nil, errors.New("package repository is not configured")
	}
	if req == nil {
		return nil, apperrors.Validation("package request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	pkg, err := s.packages.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	s.InvalidateCollection(ctx, catalog.CollectionPackages)
	return pkg, nil
}

// GetPackage returns a tour package by ID.
func (s *CatalogService) GetPackage(ctx context.Context, id string) (*model.TourPackage, error) {
	if s.packages == nil {
		return nil, errors.New("package repository is not configured")
	}
	pkg, err := s.packages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrPackageNotFound) {
			return nil, apperrors.NotFound("package not found")
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	return pkg, nil
}

// ListPackages lists tour packages without any tier logic, for admin views
// that must see inactive rows too.
func (s *CatalogService) ListPackages(ctx context.Context, opts model.PackagesListOptions) ([]*model.TourPackage, error) {
	if s.packages == nil {
		return nil, errors.New("package repository is not configured")
	}
	rows, err := s.packages.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return rows, nil
}

// UpdatePackage updates a tour package and invalidates the packages cache.
func (s *CatalogService) UpdatePackage(ctx context.Context, id string, req model.UpdatePackageRequest) (*model.TourPackage, error) {
	if s.packages == nil {
		return nil, errors.New("package repository is not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	pkg, err := s.packages.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, data.ErrPackageNotFound) {
			return nil, apperrors.NotFound("package not found")
		}
		return nil, fmt.Errorf("update package: %w", err)
	}

	s.InvalidateCollection(ctx, catalog.CollectionPackages)
	return pkg, nil
}

// DeletePackage deletes a tour package and invalidates the packages cache.
func (s *CatalogService) DeletePackage(ctx context.Context, id string) error {
	if s.packages == nil {
		return errors.New("package repository is not configured")
	}
	deleted, err := s.packages.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("package not found")
	}

	s.InvalidateCollection(ctx, catalog.CollectionPackages)
	return nil
}

// CreateDestination creates a destination and invalidates the destinations cache.
func (s *CatalogService) CreateDestination(ctx context.Context, req *model.CreateDestinationRequest) (*model.Destination, error) {
	if s.destinations == nil {
		return nil, errors.New("destination repository is not configured")
	}
	if req == nil {
		return nil, apperrors.Validation("destination request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	dest, err := s.destinations.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	s.InvalidateCollection(ctx, catalog.CollectionDestinations)
	return dest, nil
}

// GetDestination returns a destination by ID.
func (s *CatalogService) GetDestination(ctx context.Context, id string) (*model.Destination, error) {
	if s.destinations == nil {
		return nil, errors.New("destination repository is not configured")
	}
	dest, err := s.destinations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrDestinationNotFound) {
			return nil, apperrors.NotFound("destination not found")
		}
		return nil, fmt.Errorf("get destination: %w", err)
	}
	return dest, nil
}

// ListDestinations lists destinations for admin views.
func (s *CatalogService) ListDestinations(ctx context.Context, opts model.DestinationsListOptions) ([]*model.Destination, error) {
	if s.destinations == nil {
		return nil, errors.New("destination repository is not configured")
	}
	rows, err := s.destinations.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return rows, nil
}

// UpdateDestination updates a destination and invalidates the destinations cache.
func (s *CatalogService) UpdateDestination(ctx context.Context, id string, req model.UpdateDestinationRequest) (*model.Destination, error) {
	if s.destinations == nil {
		return nil, errors.New("destination repository is not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	dest, err := s.destinations.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, data.ErrDestinationNotFound) {
			return nil, apperrors.NotFound("destination not found")
		}
		return nil, fmt.Errorf("update destination: %w", err)
	}

	s.InvalidateCollection(ctx, catalog.CollectionDestinations)
	return dest, nil
}

// DeleteDestination deletes a destination and invalidates the destinations cache.
func (s *CatalogService) DeleteDestination(ctx context.Context, id string) error {
	if s.destinations == nil {
		return errors.New("destination repository is not configured")
	}
	deleted, err := s.destinations.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete destination: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("destination not found")
	}

	s.InvalidateCollection(ctx, catalog.CollectionDestinations)
	return nil
}

// CreateService creates an agency service and invalidates the services cache.
func (s *CatalogService) CreateService(ctx context.Context, req *model.CreateServiceRequest) (*model.AgencyService, error) {
	if s.services == nil {
		return nil, errors.New("service repository is not configured")
	}
	if req == nil {
		return nil, apperrors.Validation("service request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	svc, err := s.services.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	s.InvalidateCollection(ctx, catalog.CollectionServices)
	return svc, nil
}

// GetService returns an agency service by ID.
func (s *CatalogService) GetService(ctx context.Context, id string) (*model.AgencyService, error) {
	if s.services == nil {
		return nil, errors.New("service repository is not configured")
	}
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrServiceNotFound) {
			return nil, apperrors.NotFound("service not found")
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// ListServices lists agency services for admin views.
func (s *CatalogService) ListServices(ctx context.Context, opts model.ServicesListOptions) ([]*model.AgencyService, error) {
	if s.services == nil {
		return nil, errors.New("service repository is not configured")
	}
	rows, err := s.services.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return rows, nil
}

// DeleteService deletes an agency service and invalidates the services cache.
func (s *CatalogService) DeleteService(ctx context.Context, id string) error {
	if s.services == nil {
		return errors.New("service repository is not configured")
	}
	deleted, err := s.services.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("service not found")
	}

	s.InvalidateCollection(ctx, catalog.CollectionServices)
	return nil
}
