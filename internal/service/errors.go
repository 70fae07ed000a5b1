// Package service provides application-level services for user registration,
// opinion surveys, and the match lifecycle.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These represent expected conditions that callers check with errors.Is();
// the API layer maps them to HTTP status codes.
var (
	// ErrNotEligible indicates the user cannot enter matching yet: the
	// opinion survey is incomplete, the profile has no topic or time slots,
	// or the user's attitude scores exclude them from the pool.
	ErrNotEligible = errors.New("user is not eligible for matching")

	// ErrNoMatchAvailable indicates no compatible partner exists right now.
	// The user stays in the pool for the next batch cycle.
	ErrNoMatchAvailable = errors.New("no compatible partner available")

	// ErrNotMatched indicates the user has no active match.
	ErrNotMatched = errors.New("user has no active match")

	// ErrSlotOutsideWindow indicates a declared time slot is not one of the
	// bookable meeting slots.
	ErrSlotOutsideWindow = errors.New("time slot outside the meeting window")
)
