package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parleyhq/parley-api/internal/api"
	apiMiddleware "github.com/parleyhq/parley-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	userHandler := api.NewUserHandler(app.userService, app.matchService)
	opinionHandler := api.NewOpinionHandler(app.opinionService)
	matchHandler := api.NewMatchHandler(app.matchService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", userHandler.RegisterUser)
		r.Get("/users/{userID}", userHandler.GetUser)
		r.Put("/users/{userID}/availability", userHandler.SubmitAvailability)
		r.Get("/slots", userHandler.ListSlots)

		r.Get("/dimensions", opinionHandler.ListDimensions)
		r.Post("/users/{userID}/scores", opinionHandler.SubmitScores)
		r.Get("/users/{userID}/scores", opinionHandler.GetScores)

		r.Post("/users/{userID}/match", matchHandler.RequestMatch)
		r.Get("/users/{userID}/match", matchHandler.GetMatchStatus)
		r.Post("/users/{userID}/arrival", matchHandler.MarkArrived)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
