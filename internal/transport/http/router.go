// Package httptransport is the thin HTTP layer over the fulfillment core.
// Handlers delegate to domain services without embedding business logic.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auszug/internal/platform/middleware"
)

// NewRouter wires the endpoints the admin/CRUD collaborator consumes. The
// fulfillment entry point requires the shared bearer token; health and
// metrics stay open for the platform.
func NewRouter(h *Handler, jwtSigningKey string, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSigningKey, log))
		r.Post("/orders/{orderID}/fulfill", h.handleFulfill)
		r.Get("/orders/{orderID}/notes", h.handleNotes)
	})

	return r
}
