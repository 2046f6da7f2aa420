package doctor

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("doctor not found")
	ErrEmailTaken = errors.New("a doctor with this email already exists")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Specialty   string    `db:"specialty" json:"specialty"`
	Email       string    `db:"email" json:"email"`
	Credentials string    `db:"credentials" json:"credentials,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Patch carries a partial update; nil fields are left alone.
type Patch struct {
	Name        *string `json:"name"`
	Specialty   *string `json:"specialty"`
	Email       *string `json:"email"`
	Credentials *string `json:"credentials"`
}

// Apply copies the set fields of p onto d.
func (p Patch) Apply(d *Doctor) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Specialty != nil {
		d.Specialty = *p.Specialty
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.Credentials != nil {
		d.Credentials = *p.Credentials
	}
}

// Normalize trims whitespace and lower-cases the email.
func (d *Doctor) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Specialty = strings.TrimSpace(d.Specialty)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Credentials = strings.TrimSpace(d.Credentials)
}

// Validate checks the required fields.
func (d *Doctor) Validate() error {
	if d.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if d.Specialty == "" {
		return &ValidationError{Field: "specialty", Reason: "is required"}
	}
	if d.Email == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return &ValidationError{Field: "email", Reason: "is invalid"}
	}
	return nil
}
