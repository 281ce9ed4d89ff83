package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/deadpage-hunter/internal/delivery/http/handler"
	"github.com/user/deadpage-hunter/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Get("/api/health", h.HandleHealthCheck)
	r.Post("/api/messages", h.HandleMessage)
	r.Get("/api/tabs/active", h.HandleActiveTab)
	r.Get("/api/search", h.HandleSearch)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
