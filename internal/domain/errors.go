// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyTopic is returned when a topic is required but missing.
	ErrEmptyTopic = errors.New("topic cannot be empty")

	// ErrScoreOutOfRange is returned when an opinion score falls outside
	// the Likert range [-2, +2].
	ErrScoreOutOfRange = errors.New("opinion score out of range")

	// ErrUnknownDimension is returned when a score references a dimension
	// that is not part of the catalog.
	ErrUnknownDimension = errors.New("unknown opinion dimension")

	// ErrInvalidDimension is returned when a dimension catalog entry is
	// internally inconsistent (bad category, ordinal, or weight).
	ErrInvalidDimension = errors.New("invalid opinion dimension")

	// ErrNoTimeSlots is returned when a user submits availability without
	// at least one time slot.
	ErrNoTimeSlots = errors.New("at least one time slot is required")

	// ErrTooManyTimeSlots is returned when a user submits more than the
	// allowed number of time slots.
	ErrTooManyTimeSlots = errors.New("too many time slots")

	// ErrDuplicateTimeSlots is returned when the submitted time slots are
	// not distinct.
	ErrDuplicateTimeSlots = errors.New("time slots must be distinct")

	// ErrSelfMatch is returned when a pairing would link a user to themselves.
	ErrSelfMatch = errors.New("user cannot be matched with themselves")
)

// ValidationError describes a validation failure on a specific field.
// It wraps an underlying sentinel error so callers can use errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
