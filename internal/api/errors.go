package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/parleyhq/parley-api/internal/api/shared"
	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/service"
	"github.com/parleyhq/parley-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrDimensionNotFound),
		errors.Is(err, service.ErrNotMatched):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrPairingConflict),
		errors.Is(err, service.ErrNotEligible):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmptyTopic),
		errors.Is(err, domain.ErrScoreOutOfRange),
		errors.Is(err, domain.ErrUnknownDimension),
		errors.Is(err, domain.ErrNoTimeSlots),
		errors.Is(err, domain.ErrTooManyTimeSlots),
		errors.Is(err, domain.ErrDuplicateTimeSlots),
		errors.Is(err, service.ErrSlotOutsideWindow),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrDimensionNotFound):
		return "Opinion dimension not found"

	case errors.Is(err, service.ErrNotMatched):
		return "No active match"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already registered"

	case errors.Is(err, store.ErrPairingConflict):
		return "Match state changed, please retry"

	case errors.Is(err, service.ErrNotEligible):
		return "Complete the opinion survey and availability first"

	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email address"

	case errors.Is(err, domain.ErrScoreOutOfRange):
		return "Opinion scores must be between -2 and +2"

	case errors.Is(err, domain.ErrUnknownDimension):
		return "Unknown opinion dimension"

	case errors.Is(err, domain.ErrNoTimeSlots):
		return "At least one time slot is required"

	case errors.Is(err, domain.ErrTooManyTimeSlots):
		return "Too many time slots"

	case errors.Is(err, domain.ErrDuplicateTimeSlots):
		return "Time slots must be distinct"

	case errors.Is(err, service.ErrSlotOutsideWindow):
		return "Time slot is not one of the offered meeting slots"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'RegisterUserRequest.Email' Error:Field
	// validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte", "lte":
		return "out of range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError maps an error to a status code and safe message and writes
// the response. An empty userMessage falls back to the mapped safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}
