//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxContactMessageLen = 5000

// ContactMessage is an inquiry submitted through the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	Subject   string    `json:"subject"    db:"subject"`
	Message   string    `json:"message"    db:"message"`
	Handled   bool      `json:"handled"    db:"handled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateContactRequest represents the public contact form submission.
type CreateContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Validate validates CreateContactRequest.
func (r *CreateContactRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	if utf8.RuneCountInString(r.Message) > maxContactMessageLen {
		return errors.New("message cannot exceed 5000 characters")
	}
	return nil
}
