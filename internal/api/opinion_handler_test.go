package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/service"
)

func opinionRouter(svc service.OpinionService) http.Handler {
	h := NewOpinionHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/dimensions", h.ListDimensions)
	r.Post("/api/users/{userID}/scores", h.SubmitScores)
	r.Get("/api/users/{userID}/scores", h.GetScores)
	return r
}

func TestListDimensionsHandler(t *testing.T) {
	t.Parallel()

	svc := &mockOpinionService{
		ListDimensionsFn: func(ctx context.Context) ([]*domain.OpinionDimension, error) {
			return []*domain.OpinionDimension{
				{
					Name:        "attitude_open_to_differ",
					DisplayName: "Openness to differing views",
					Category:    domain.CategoryAttitude,
					Ordinal:     1,
					Weight:      1.0,
					Active:      true,
				},
				{
					Name:        "match_support_main_idea",
					DisplayName: "Support for the main idea",
					Category:    domain.CategoryMatching,
					Ordinal:     1,
					Weight:      2.0,
					Active:      true,
				},
			}, nil
		},
	}

	rec := doJSON(t, opinionRouter(svc), http.MethodGet, "/api/dimensions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []DimensionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "attitude", resp[0].Category)
	assert.Equal(t, "matching", resp[1].Category)

	// Weights are tuning data and must not leak through the API.
	assert.NotContains(t, rec.Body.String(), "weight")
}

func TestSubmitScoresHandler(t *testing.T) {
	t.Parallel()

	stored := map[string]float64{"attitude_open_to_differ": 1}

	svc := &mockOpinionService{
		SubmitScoresFn: func(ctx context.Context, userID uuid.UUID, answers map[string]float64) error {
			return nil
		},
		GetScoresFn: func(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
			return stored, nil
		},
	}

	body := SubmitScoresRequest{Scores: map[string]float64{"attitude_open_to_differ": 1}}
	rec := doJSON(t, opinionRouter(svc), http.MethodPost,
		"/api/users/"+uuid.NewString()+"/scores", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScoresResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, stored, resp.Scores)
}

func TestSubmitScoresHandlerBadInput(t *testing.T) {
	t.Parallel()

	svc := &mockOpinionService{
		SubmitScoresFn: func(ctx context.Context, userID uuid.UUID, answers map[string]float64) error {
			return domain.ErrUnknownDimension
		},
	}
	router := opinionRouter(svc)

	// Empty score map fails validation before reaching the service.
	rec := doJSON(t, router, http.MethodPost,
		"/api/users/"+uuid.NewString()+"/scores", SubmitScoresRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown dimension from the service maps to a 400.
	body := SubmitScoresRequest{Scores: map[string]float64{"bogus": 1}}
	rec = doJSON(t, router, http.MethodPost,
		"/api/users/"+uuid.NewString()+"/scores", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Out-of-range value maps to a 400 as well.
	svc.SubmitScoresFn = func(ctx context.Context, userID uuid.UUID, answers map[string]float64) error {
		return domain.ErrScoreOutOfRange
	}
	body = SubmitScoresRequest{Scores: map[string]float64{"attitude_open_to_differ": 9}}
	rec = doJSON(t, router, http.MethodPost,
		"/api/users/"+uuid.NewString()+"/scores", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScoresHandler(t *testing.T) {
	t.Parallel()

	svc := &mockOpinionService{
		GetScoresFn: func(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
			return map[string]float64{"match_support_main_idea": -2}, nil
		},
	}

	rec := doJSON(t, opinionRouter(svc), http.MethodGet,
		"/api/users/"+uuid.NewString()+"/scores", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScoresResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, -2.0, resp.Scores["match_support_main_idea"])
}
