//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxDestinationNameLen = 255

// Destination represents a travel destination featured on the site.
type Destination struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Country   string    `json:"country"    db:"country"`
	Region    *string   `json:"region,omitempty" db:"region"`
	Blurb     string    `json:"blurb"      db:"blurb"`
	Active    bool      `json:"active"     db:"active"`
	ImagePath *string   `json:"image_path,omitempty" db:"image_path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DestinationsListOptions controls paging and filtering for listing destinations.
type DestinationsListOptions struct {
	Limit   int
	Offset  int
	Q       *string // substring match on name (ILIKE)
	Country *string // exact match
	Active  *bool   // exact match
	Sort    string  // allowed: "created_at", "name", "country"
	Dir     string  // allowed: "asc", "desc"
}

// CreateDestinationRequest represents parameters to create a Destination.
type CreateDestinationRequest struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Region    *string `json:"region,omitempty"`
	Blurb     string  `json:"blurb,omitempty"`
	Active    *bool   `json:"active,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`
}

// UpdateDestinationRequest represents parameters to update a Destination.
type UpdateDestinationRequest struct {
	Name      *string `json:"name,omitempty"`
	Country   *string `json:"country,omitempty"`
	Region    *string `json:"region,omitempty"`
	Blurb     *string `json:"blurb,omitempty"`
	Active    *bool   `json:"active,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`
}

// Validate validates CreateDestinationRequest.
func (r *CreateDestinationRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxDestinationNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if strings.TrimSpace(r.Country) == "" {
		return errors.New("country is required")
	}
	return nil
}

// HasUpdates reports whether any field is set in UpdateDestinationRequest.
func (r *UpdateDestinationRequest) HasUpdates() bool {
	return r.Name != nil || r.Country != nil || r.Region != nil || r.Blurb != nil ||
		r.Active != nil || r.ImagePath != nil
}

// Validate validates UpdateDestinationRequest.
func (r *UpdateDestinationRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if r.Country != nil && strings.TrimSpace(*r.Country) == "" {
		return errors.New("country cannot be empty")
	}
	return nil
}
