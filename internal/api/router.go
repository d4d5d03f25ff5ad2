package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vos/internal/siteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// Mutating routes (render, rebuild) require token when it is non-empty.
// events, if non-nil, is mounted at GET /events.
func NewRouter(svc *siteservice.Service, token string, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Built artifacts.
	r.Get("/artifacts", h.ListArtifacts)
	r.Get("/artifacts/{name}", h.GetArtifact)

	// Productivity log.
	r.Get("/log/summary", h.LogSummary)
	r.Get("/log/recent", h.RecentLogs)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(token))
		r.Post("/render", h.Render)
		r.Post("/evaluate", h.Evaluate)
		r.Post("/rebuild", h.Rebuild)
	})

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
