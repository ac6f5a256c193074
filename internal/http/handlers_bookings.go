package httpx

import (
	"errors"
	"net/http"

	"github.com/atlastours/agency-api/internal/domain/model"
	"github.com/atlastours/agency-api/internal/service"
)

// BookingHandlers provides HTTP handlers for the public booking funnel.
type BookingHandlers struct {
	Svc *service.BookingService
}

// Create handles the public booking submission.
// POST /api/bookings.
func (h *BookingHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	booking, err := h.Svc.CreateBooking(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, booking)
}

// GetByReference lets a customer look up their booking with the code from the
// confirmation message.
// GET /api/bookings/{reference}.
func (h *BookingHandlers) GetByReference(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")
	if reference == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("booking reference is required")},
		)
		return
	}

	booking, err := h.Svc.GetBookingByReference(r.Context(), reference)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, booking)
}

// Contact handles the public contact form, the manual channel offered when a
// booking submission ultimately fails.
// POST /api/contact.
func (h *BookingHandlers) Contact(w http.ResponseWriter, r *http.Request) {
	var req model.CreateContactRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	msg, err := h.Svc.SubmitContact(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, msg)
}
