package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/samples/parse", h.HandleParseSample)
		r.Get("/schema/leaves", h.HandleSchemaLeaves)
		r.Post("/schemas", h.HandleSaveSchema)
		r.Get("/schemas/{partner}", h.HandleGetSchema)
		r.Post("/mappings/suggest", h.HandleSuggestMappings)
		r.Post("/transform", h.HandleTransform)
		r.Get("/runs", h.HandleListRuns)
		r.Post("/webhook/sample", h.HandleWebhookSample)
	})

	return r
}
