package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/parleyhq/parley-api/internal/api/shared"
	"github.com/parleyhq/parley-api/internal/service"
)

// RegisterUserRequest represents the request body for registering a participant.
type RegisterUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AvailabilityRequest represents the request body for submitting a topic,
// demographics, and meeting availability.
type AvailabilityRequest struct {
	Topic     string      `json:"topic"      validate:"required,min=1"`
	Gender    string      `json:"gender"`
	Age       int         `json:"age"        validate:"omitempty,gte=16,lte=120"`
	Education string      `json:"education"`
	Job       string      `json:"job"`
	TimeSlots []time.Time `json:"time_slots" validate:"required,min=1,max=3"`
}

// UserHandler handles participant-related HTTP requests.
type UserHandler struct {
	userService  service.UserService
	matchService service.MatchService
	validator    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService, matchService service.MatchService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		matchService: matchService,
		validator:    validator.New(),
	}
}

// RegisterUser handles POST /api/users requests.
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := h.userService.RegisterUser(r.Context(), req.Email)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, userToResponse(user))
}

// GetUser handles GET /api/users/{userID} requests.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// SubmitAvailability handles PUT /api/users/{userID}/availability requests.
// Saving a profile makes the participant matchable, so a match attempt runs
// immediately; "no partner yet" is a normal outcome, not an error, and the
// participant stays in the pool for the next batch cycle.
func (h *UserHandler) SubmitAvailability(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req AvailabilityRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Topic:     req.Topic,
		Gender:    req.Gender,
		Age:       req.Age,
		Education: req.Education,
		Job:       req.Job,
		TimeSlots: req.TimeSlots,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := AvailabilityResponse{User: userToResponse(user)}

	status, err := h.matchService.RequestMatch(r.Context(), userID)
	switch {
	case err == nil:
		resp.Match = statusToResponse(status)
		resp.User.Matched = resp.Match.Matched
	case errors.Is(err, service.ErrNoMatchAvailable),
		errors.Is(err, service.ErrNotEligible):
		resp.Match = MatchStatusResponse{Matched: false}
	default:
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ListSlots handles GET /api/slots requests.
func (h *UserHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, SlotsResponse{
		Slots: h.userService.AvailableSlots(),
	})
}
