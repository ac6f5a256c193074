package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrPackageNotFound     = errors.New("tour package not found")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrContactNotFound     = errors.New("contact message not found")
)

// Sort direction constants shared by list queries.
const (
	sortDirAsc  = "ASC"
	sortDirDesc = "DESC"
)
