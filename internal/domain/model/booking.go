//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxBookingNotesLen  = 2000
	maxBookingTravelers = 50
)

// BookingStatus tracks a booking through its lifecycle.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Valid reports whether the booking status is supported.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseBookingStatus normalizes a status string and reports whether it is supported.
func ParseBookingStatus(value string) (BookingStatus, bool) {
	s := BookingStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// Booking represents a customer's booking of a tour package.
// Reference is a short human-readable code quoted in correspondence.
type Booking struct {
	ID         string        `json:"id"          db:"id"`
	Reference  string        `json:"reference"   db:"reference"`
	PackageID  string        `json:"package_id"  db:"package_id"`
	CustomerID string        `json:"customer_id" db:"customer_id"`
	TravelDate time.Time     `json:"travel_date" db:"travel_date"`
	Travelers  int           `json:"travelers"   db:"travelers"`
	Status     BookingStatus `json:"status"      db:"status"`
	Notes      *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time     `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"  db:"updated_at"`
}

// BookingsListOptions controls paging and filtering for listing bookings.
type BookingsListOptions struct {
	Limit      int
	Offset     int
	Status     *string // exact match
	PackageID  *string // exact match
	CustomerID *string // exact match
	Sort       string  // allowed: "created_at", "travel_date"
	Dir        string  // allowed: "asc", "desc"
}

// CreateBookingRequest represents the public booking submission.
// Customer fields are upserted by email; the booking row references the
// resulting customer ID.
type CreateBookingRequest struct {
	PackageID     string    `json:"package_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	TravelDate    time.Time `json:"travel_date"`
	Travelers     int       `json:"travelers"`
	Notes         *string   `json:"notes,omitempty"`
}

// Validate validates CreateBookingRequest. All checks run client-side of the
// database so invalid submissions never cost a write attempt.
func (r *CreateBookingRequest) Validate() error {
	if strings.TrimSpace(r.PackageID) == "" {
		return errors.New("package_id is required")
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return errors.New("customer_name is required")
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		return errors.New("customer_email is required")
	}
	if r.TravelDate.IsZero() {
		return errors.New("travel_date is required")
	}
	if r.Travelers <= 0 || r.Travelers > maxBookingTravelers {
		return errors.New("travelers must be between 1 and 50")
	}
	if r.Notes != nil && utf8.RuneCountInString(*r.Notes) > maxBookingNotesLen {
		return errors.New("notes cannot exceed 2000 characters")
	}
	return nil
}
