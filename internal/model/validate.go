package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

const minPasswordLength = 8

// ValidateEmail checks basic email shape (local@domain.tld).
func ValidateEmail(email string) error {
	if emailPattern.MatchString(strings.TrimSpace(email)) {
		return nil
	}
	return &ValidationError{Errors: []FieldError{
		{Field: "email", Message: fmt.Sprintf("invalid email address %q", email)},
	}}
}

// ValidatePhoneNumber accepts digits with an optional leading +.
func ValidatePhoneNumber(number string) error {
	if phonePattern.MatchString(strings.TrimSpace(number)) {
		return nil
	}
	return &ValidationError{Errors: []FieldError{
		{Field: "phoneNumber", Message: fmt.Sprintf("invalid phone number %q", number)},
	}}
}

// ValidatePassword enforces the minimum length.
func ValidatePassword(password string) error {
	if len(password) >= minPasswordLength {
		return nil
	}
	return &ValidationError{Errors: []FieldError{
		{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)},
	}}
}

// ValidateGuest checks a guest's contact fields; empty optional fields
// pass.
func ValidateGuest(g *Guest) error {
	var ve ValidationError
	if g.Email != "" {
		if err := ValidateEmail(g.Email); err != nil {
			ve.Errors = append(ve.Errors, err.(*ValidationError).Errors...)
		}
	}
	if g.PhoneNumber != "" {
		if err := ValidatePhoneNumber(g.PhoneNumber); err != nil {
			ve.Errors = append(ve.Errors, err.(*ValidationError).Errors...)
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateTable checks table constraints before an upsert.
func ValidateTable(t *Table) error {
	var ve ValidationError
	if strings.TrimSpace(t.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}
	if !t.Occasion.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "occasion",
			Message: fmt.Sprintf("invalid value %q", t.Occasion),
		})
	}
	if t.NumChecks < 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "numChecks",
			Message: fmt.Sprintf("must not be negative, got %d", t.NumChecks),
		})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
