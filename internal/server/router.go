// Package server is the reference REST backend: the chat feed, private
// questions and profiles over JSON, backed by internal/store.
package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger *slog.Logger, st *store.Store) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(Metrics)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", backend.PrincipalHeader, backend.RequestIDHeader},
		ExposedHeaders:   []string{backend.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := NewHandler(st, logger)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	// The chat feed is public to read.
	r.Get("/messages", h.GetMessages)

	r.Group(func(r chi.Router) {
		r.Use(RequirePrincipal)

		r.Post("/messages", h.SendMessage)
		r.Get("/questions", h.GetQuestions)
		r.Post("/questions", h.CreateQuestion)
		r.Put("/questions/{id}/answer", h.AnswerQuestion)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.SaveProfile)
	})

	return r
}
