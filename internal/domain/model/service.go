//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// ServiceCategory classifies an agency service offering.
type ServiceCategory string

const (
	ServiceCategoryVisa      ServiceCategory = "visa"
	ServiceCategoryTransport ServiceCategory = "transport"
	ServiceCategoryInsurance ServiceCategory = "insurance"
	ServiceCategoryGuide     ServiceCategory = "guide"
	ServiceCategoryOther     ServiceCategory = "other"
)

// Valid reports whether the service category is supported.
func (c ServiceCategory) Valid() bool {
	switch c {
	case ServiceCategoryVisa, ServiceCategoryTransport, ServiceCategoryInsurance,
		ServiceCategoryGuide, ServiceCategoryOther:
		return true
	default:
		return false
	}
}

// ParseServiceCategory normalizes a category string, defaulting to "other"
// when empty, and reports whether it is supported.
func ParseServiceCategory(value string) (ServiceCategory, bool) {
	c := ServiceCategory(strings.ToLower(strings.TrimSpace(value)))
	if c == "" {
		return ServiceCategoryOther, true
	}
	if c.Valid() {
		return c, true
	}
	return "", false
}

// AgencyService represents a standalone service offering (visa assistance,
// airport transfer, travel insurance, and so on).
type AgencyService struct {
	ID          string          `json:"id"          db:"id"`
	Name        string          `json:"name"        db:"name"`
	Description string          `json:"description" db:"description"`
	Category    ServiceCategory `json:"category"    db:"category"`
	PriceCents  int64           `json:"price_cents" db:"price_cents"`
	Active      bool            `json:"active"      db:"active"`
	CreatedAt   time.Time       `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"  db:"updated_at"`
}

// ServicesListOptions controls paging and filtering for listing services.
type ServicesListOptions struct {
	Limit    int
	Offset   int
	Category *string
	Active   *bool
	Sort     string // allowed: "created_at", "name"
	Dir      string // allowed: "asc", "desc"
}

// CreateServiceRequest represents parameters to create an AgencyService.
type CreateServiceRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    ServiceCategory `json:"category,omitempty"`
	PriceCents  int64           `json:"price_cents"`
	Active      *bool           `json:"active,omitempty"`
}

// Validate validates CreateServiceRequest.
func (r *CreateServiceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required and cannot be empty")
	}
	if r.PriceCents < 0 {
		return errors.New("price_cents cannot be negative")
	}
	category, ok := ParseServiceCategory(string(r.Category))
	if !ok {
		return errors.New("invalid category")
	}
	r.Category = category
	return nil
}
