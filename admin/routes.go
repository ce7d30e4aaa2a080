package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/maxpert/mylite/telemetry"
)

// NewRouter builds the HTTP surface of a translator: Prometheus metrics at
// /metrics and the admin API under /admin.
func NewRouter(handlers *AdminHandlers) http.Handler {
	r := chi.NewRouter()

	if metrics := telemetry.GetMetricsHandler(); metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Get("/stats", handlers.handleStats)
		r.Get("/last-queries", handlers.handleLastQueries)
		r.Post("/reconstruct", handlers.handleReconstruct)

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", handlers.handleListTables)
			r.Get("/{table}/create", handlers.handleShowCreate)
			r.Get("/{table}/columns", handlers.handleColumns)
		})
	})

	log.Info().Msg("Admin endpoints enabled at /admin/*")
	return r
}
