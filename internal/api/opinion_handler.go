package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/parleyhq/parley-api/internal/api/shared"
	"github.com/parleyhq/parley-api/internal/service"
)

// SubmitScoresRequest represents the request body for submitting survey
// answers, keyed by dimension name.
type SubmitScoresRequest struct {
	Scores map[string]float64 `json:"scores" validate:"required,min=1"`
}

// OpinionHandler handles survey-related HTTP requests.
type OpinionHandler struct {
	opinionService service.OpinionService
	validator      *validator.Validate
}

// NewOpinionHandler creates a new OpinionHandler.
func NewOpinionHandler(opinionService service.OpinionService) *OpinionHandler {
	return &OpinionHandler{
		opinionService: opinionService,
		validator:      validator.New(),
	}
}

// ListDimensions handles GET /api/dimensions requests.
func (h *OpinionHandler) ListDimensions(w http.ResponseWriter, r *http.Request) {
	dims, err := h.opinionService.ListDimensions(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := make([]DimensionResponse, 0, len(dims))
	for _, d := range dims {
		resp = append(resp, dimensionToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// SubmitScores handles POST /api/users/{userID}/scores requests.
func (h *OpinionHandler) SubmitScores(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SubmitScoresRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.opinionService.SubmitScores(r.Context(), userID, req.Scores); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	stored, err := h.opinionService.GetScores(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ScoresResponse{Scores: stored})
}

// GetScores handles GET /api/users/{userID}/scores requests.
func (h *OpinionHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	scores, err := h.opinionService.GetScores(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ScoresResponse{Scores: scores})
}
