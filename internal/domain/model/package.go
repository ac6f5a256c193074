//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxPackageTitleLen = 255
	maxDurationDays    = 365
)

// TourPackage represents a bookable tour offering in the catalog.
type TourPackage struct {
	ID            string    `json:"id"             db:"id"`
	Title         string    `json:"title"          db:"title"`
	Summary       string    `json:"summary"        db:"summary"`
	DestinationID *string   `json:"destination_id,omitempty" db:"destination_id"`
	PriceCents    int64     `json:"price_cents"    db:"price_cents"`
	Currency      string    `json:"currency"       db:"currency"`
	DurationDays  int       `json:"duration_days"  db:"duration_days"`
	MaxTravelers  int       `json:"max_travelers"  db:"max_travelers"`
	Featured      bool      `json:"featured"       db:"featured"`
	Active        bool      `json:"active"         db:"active"`
	ImagePath     *string   `json:"image_path,omitempty" db:"image_path"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// PackagesListOptions controls paging and filtering for listing packages.
// Sort supports "created_at", "title", "price_cents"; Dir supports
// "asc"/"desc" (case-insensitive, normalized internally).
type PackagesListOptions struct {
	Limit         int
	Offset        int
	Q             *string // substring match on title (ILIKE)
	DestinationID *string // exact match
	Featured      *bool   // exact match
	Active        *bool   // exact match
	Sort          string
	Dir           string
}

// CreatePackageRequest represents parameters to create a TourPackage.
type CreatePackageRequest struct {
	Title         string  `json:"title"`
	Summary       string  `json:"summary"`
	DestinationID *string `json:"destination_id,omitempty"`
	PriceCents    int64   `json:"price_cents"`
	Currency      string  `json:"currency,omitempty"`
	DurationDays  int     `json:"duration_days"`
	MaxTravelers  int     `json:"max_travelers,omitempty"`
	Featured      *bool   `json:"featured,omitempty"`
	Active        *bool   `json:"active,omitempty"`
	ImagePath     *string `json:"image_path,omitempty"`
}

// UpdatePackageRequest represents parameters to update a TourPackage.
type UpdatePackageRequest struct {
	Title         *string `json:"title,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	DestinationID *string `json:"destination_id,omitempty"`
	PriceCents    *int64  `json:"price_cents,omitempty"`
	Currency      *string `json:"currency,omitempty"`
	DurationDays  *int    `json:"duration_days,omitempty"`
	MaxTravelers  *int    `json:"max_travelers,omitempty"`
	Featured      *bool   `json:"featured,omitempty"`
	Active        *bool   `json:"active,omitempty"`
	ImagePath     *string `json:"image_path,omitempty"`
}

// Validate validates CreatePackageRequest.
func (r *CreatePackageRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxPackageTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	if r.PriceCents < 0 {
		return errors.New("price_cents cannot be negative")
	}
	if r.DurationDays <= 0 || r.DurationDays > maxDurationDays {
		return errors.New("duration_days must be between 1 and 365")
	}
	if r.MaxTravelers < 0 {
		return errors.New("max_travelers cannot be negative")
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if len(r.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	r.Currency = strings.ToUpper(r.Currency)
	return nil
}

// HasUpdates reports whether any field is set in UpdatePackageRequest.
func (r *UpdatePackageRequest) HasUpdates() bool {
	return r.Title != nil || r.Summary != nil || r.DestinationID != nil || r.PriceCents != nil ||
		r.Currency != nil || r.DurationDays != nil || r.MaxTravelers != nil ||
		r.Featured != nil || r.Active != nil || r.ImagePath != nil
}

// Validate validates UpdatePackageRequest, ensuring at least one field is set.
func (r *UpdatePackageRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		if utf8.RuneCountInString(title) > maxPackageTitleLen {
			return errors.New("title cannot exceed 255 characters")
		}
	}
	if r.PriceCents != nil && *r.PriceCents < 0 {
		return errors.New("price_cents cannot be negative")
	}
	if r.DurationDays != nil && (*r.DurationDays <= 0 || *r.DurationDays > maxDurationDays) {
		return errors.New("duration_days must be between 1 and 365")
	}
	if r.Currency != nil {
		if len(*r.Currency) != 3 {
			return errors.New("currency must be a 3-letter code")
		}
		*r.Currency = strings.ToUpper(*r.Currency)
	}
	return nil
}
