package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories, services and controllers.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ErrCapacityExceeded is returned when an attendee role is requested on a full event.
var ErrCapacityExceeded = fmt.Errorf("%w: event has reached its maximum capacity", ErrConflict)

// ErrInvalidToken is returned for malformed, tampered and expired link tokens alike,
// so callers cannot tell which check failed.
var ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", ErrNotFound)

// ErrEventNotFound is returned when an event slug does not resolve.
var ErrEventNotFound = fmt.Errorf("event %w", ErrNotFound)

// ValidationError describes a single rejected input field. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
