package httpx

import (
	"errors"
	"net/http"

	"github.com/atlastours/agency-api/internal/domain/model"
	"github.com/atlastours/agency-api/internal/service"
)

const maxAdminListLimit = 100 // Maximum number of rows an admin list call can request

// AdminHandlers provides HTTP handlers for the admin dashboard: catalog
// writes, booking follow-up, and the contact inbox. All routes are mounted
// behind the admin role middleware.
type AdminHandlers struct {
	Catalog  *service.CatalogService
	Bookings *service.BookingService
}

// requireID reads the {id} path value, writing a 400 when missing.
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("id is required")},
		)
		return "", false
	}
	return id, true
}

// CreatePackage handles HTTP requests to create a tour package.
func (h *AdminHandlers) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePackageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	pkg, err := h.Catalog.CreatePackage(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, pkg)
}

// ListPackages handles HTTP requests to list tour packages, inactive included.
func (h *AdminHandlers) ListPackages(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxAdminListLimit)

	rows, err := h.Catalog.ListPackages(r.Context(), model.PackagesListOptions{
		Limit:         limit,
		Offset:        offset,
		Q:             queryString(r, "q"),
		DestinationID: queryString(r, "destination_id"),
		Featured:      queryBool(r, "featured"),
		Active:        queryBool(r, "active"),
		Sort:          r.URL.Query().Get("sort"),
		Dir:           r.URL.Query().Get("dir"),
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"packages": rows,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetPackage handles HTTP requests to get a tour package by ID.
func (h *AdminHandlers) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	pkg, err := h.Catalog.GetPackage(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, pkg)
}

// UpdatePackage handles HTTP requests to update a tour package.
func (h *AdminHandlers) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var req model.UpdatePackageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	pkg, err := h.Catalog.UpdatePackage(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, pkg)
}

// DeletePackage handles HTTP requests to delete a tour package.
func (h *AdminHandlers) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeletePackage(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// CreateDestination handles HTTP requests to create a destination.
func (h *AdminHandlers) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDestinationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	dest, err := h.Catalog.CreateDestination(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, dest)
}

// ListDestinations handles HTTP requests to list destinations.
func (h *AdminHandlers) ListDestinations(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxAdminListLimit)

	rows, err := h.Catalog.ListDestinations(r.Context(), model.DestinationsListOptions{
		Limit:   limit,
		Offset:  offset,
		Q:       queryString(r, "q"),
		Country: queryString(r, "country"),
		Active:  queryBool(r, "active"),
		Sort:    r.URL.Query().Get("sort"),
		Dir:     r.URL.Query().Get("dir"),
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"destinations": rows,
		"limit":        limit,
		"offset":       offset,
	})
}

// GetDestination handles HTTP requests to get a destination by ID.
func (h *AdminHandlers) GetDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	dest, err := h.Catalog.GetDestination(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, dest)
}

// UpdateDestination handles HTTP requests to update a destination.
func (h *AdminHandlers) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var req model.UpdateDestinationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	dest, err := h.Catalog.UpdateDestination(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, dest)
}

// DeleteDestination handles HTTP requests to delete a destination.
func (h *AdminHandlers) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteDestination(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// CreateService handles HTTP requests to create an agency service.
func (h *AdminHandlers) CreateService(w http.ResponseWriter, r *http.Request) {
	var req model.CreateServiceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	svc, err := h.Catalog.CreateService(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, svc)
}

// ListServices handles HTTP requests to list agency services.
func (h *AdminHandlers) ListServices(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxAdminListLimit)

	rows, err := h.Catalog.ListServices(r.Context(), model.ServicesListOptions{
		Limit:    limit,
		Offset:   offset,
		Category: queryString(r, "category"),
		Active:   queryBool(r, "active"),
		Sort:     r.URL.Query().Get("sort"),
		Dir:      r.URL.Query().Get("dir"),
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"services": rows,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetService handles HTTP requests to get an agency service by ID.
func (h *AdminHandlers) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	svc, err := h.Catalog.GetService(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, svc)
}

// DeleteService handles HTTP requests to delete an agency service.
func (h *AdminHandlers) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteService(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ListBookings handles HTTP requests to list bookings.
func (h *AdminHandlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxAdminListLimit)

	rows, err := h.Bookings.ListBookings(r.Context(), model.BookingsListOptions{
		Limit:      limit,
		Offset:     offset,
		Status:     queryString(r, "status"),
		PackageID:  queryString(r, "package_id"),
		CustomerID: queryString(r, "customer_id"),
		Sort:       r.URL.Query().Get("sort"),
		Dir:        r.URL.Query().Get("dir"),
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"bookings": rows,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetBooking handles HTTP requests to get a booking by ID.
func (h *AdminHandlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	booking, err := h.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, booking)
}

// updateBookingStatusRequest is the status transition payload.
type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

// UpdateBookingStatus handles HTTP requests to move a booking through its lifecycle.
// PUT /api/admin/bookings/{id}/status.
func (h *AdminHandlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var req updateBookingStatusRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	booking, err := h.Bookings.UpdateBookingStatus(r.Context(), id, req.Status)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, booking)
}

// ListCustomers handles HTTP requests to list customers.
func (h *AdminHandlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxAdminListLimit)

	rows, err := h.Bookings.ListCustomers(r.Context(), model.CustomersListOptions{
		Limit:  limit,
		Offset: offset,
		Q:      queryString(r, "q"),
		Sort:   r.URL.Query().Get("sort"),
		Dir:    r.URL.Query().Get("dir"),
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"customers": rows,
		"limit":     limit,
		"offset":    offset,
	})
}

// ListContactMessages handles HTTP requests to read the contact inbox.
func (h *AdminHandlers) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxAdminListLimit)

	rows, err := h.Bookings.ListContactMessages(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"messages": rows,
		"limit":    limit,
		"offset":   offset,
	})
}

// MarkContactHandled handles HTTP requests to flag a contact message as dealt with.
// POST /api/admin/contact-messages/{id}/handled.
func (h *AdminHandlers) MarkContactHandled(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := h.Bookings.MarkContactHandled(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"handled": true})
}
