package api

import (
	"errors"
	"net/http"

	"github.com/parleyhq/parley-api/internal/api/shared"
	"github.com/parleyhq/parley-api/internal/service"
)

// MatchHandler handles match lifecycle HTTP requests.
type MatchHandler struct {
	matchService service.MatchService
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchService service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// RequestMatch handles POST /api/users/{userID}/match requests.
// Finding nobody is a valid outcome: the response reports matched=false and
// the participant waits for the next batch cycle. Eligibility problems are
// real errors the client must fix first.
func (h *MatchHandler) RequestMatch(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	status, err := h.matchService.RequestMatch(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoMatchAvailable) {
			respondWithStatus(w, r, &service.MatchStatus{Matched: false})
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	respondWithStatus(w, r, status)
}

// GetMatchStatus handles GET /api/users/{userID}/match requests.
func (h *MatchHandler) GetMatchStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	status, err := h.matchService.GetMatchStatus(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	respondWithStatus(w, r, status)
}

// MarkArrived handles POST /api/users/{userID}/arrival requests.
func (h *MatchHandler) MarkArrived(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.matchService.MarkArrived(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondWithStatus(w http.ResponseWriter, r *http.Request, status *service.MatchStatus) {
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(status))
}
