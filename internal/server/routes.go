package server

import "github.com/go-chi/chi/v5"

// SetupRoutes registers the query service routes.
func SetupRoutes(router chi.Router, handlers *Handlers) {
	router.Get("/healthz", handlers.Health)
	router.Get("/api/events", handlers.Events)

	router.Route("/api/data_queries", func(r chi.Router) {
		r.Get("/", handlers.ListQueries)
		r.Post("/", handlers.CreateQuery)
		r.Post("/preview", handlers.PreviewQuery)
		r.Get("/{id}", handlers.GetQuery)
		r.Patch("/{id}", handlers.UpdateQuery)
		r.Delete("/{id}", handlers.DeleteQuery)
	})
}
