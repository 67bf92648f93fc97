package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wienlist/event-aggregator/internal/engine"
	"github.com/wienlist/event-aggregator/internal/source"
	"github.com/wienlist/event-aggregator/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(cache *engine.TieredCache, adapter *source.Adapter, pgStore *store.PostgresStore, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	eventHandler := NewEventHandler(cache, adapter, logger)
	venueHandler := NewVenueHandler(pgStore)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.List)
			r.Get("/discovery-url", eventHandler.DiscoveryURL)
			r.Get("/categories", eventHandler.Categories)
		})

		r.Route("/venues", func(r chi.Router) {
			r.Get("/", venueHandler.List)
			r.Get("/{slug}", venueHandler.Get)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
