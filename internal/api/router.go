/**
 * @description
 * This file sets up the HTTP router using the go-chi/chi router. It exposes
 * the recurring donation trigger endpoint, the subscription management routes,
 * and operational endpoints (health, metrics).
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new Chi router and registers the service routes.
func NewRouter(h *Handler, internalAPIKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Recurring donation service is healthy"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The external scheduler calls this once per minute.
		r.With(InternalAuthMiddleware(internalAPIKey)).
			Get("/recurring/run", h.handleRunRecurring)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", h.handleCreateSubscription)
			r.Get("/", h.handleListSubscriptions)
			r.Delete("/{subscriptionID}", h.handleDeactivateSubscription)
		})
	})

	return r
}
