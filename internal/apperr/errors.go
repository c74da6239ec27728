// Package apperr defines the error kinds shared by the service and transport layers.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error kinds. Wrap them with New so callers can match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Error carries a human readable message on top of one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// New wraps kind with message.
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the message attached to err, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

// Add records msg for field, skipping exact duplicates.
func (f FieldErrors) Add(field, msg string) {
	for _, existing := range f[field] {
		if existing == msg {
			return
		}
	}
	f[field] = append(f[field], msg)
}

// Merge copies every message of other into f.
func (f FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		for _, msg := range msgs {
			f.Add(field, msg)
		}
	}
}

// Err returns a *ValidationError when f holds any message, nil otherwise.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// ValidationError is returned when one or more fields fail validation.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) error {
	f := FieldErrors{}
	f.Add(field, msg)
	return f.Err()
}

// AsValidation unwraps a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err comes from a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
