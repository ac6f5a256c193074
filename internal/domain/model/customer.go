//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Customer is a person who has submitted at least one booking or inquiry.
// Rows are upserted by email; repeat bookings reuse the existing record.
type Customer struct {
	ID        string    `json:"id"         db:"id"`
	FullName  string    `json:"full_name"  db:"full_name"`
	Email     string    `json:"email"      db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CustomersListOptions controls paging and filtering for listing customers.
type CustomersListOptions struct {
	Limit  int
	Offset int
	Q      *string // substring match on full_name or email (ILIKE)
	Sort   string  // allowed: "created_at", "full_name"
	Dir    string  // allowed: "asc", "desc"
}

// UpsertCustomerRequest represents parameters to create or refresh a Customer.
type UpsertCustomerRequest struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
}

// Validate validates UpsertCustomerRequest.
func (r *UpsertCustomerRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return errors.New("full_name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return nil
}
