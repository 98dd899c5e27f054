// Package http wires the HTTP surface of the service: routing, middleware
// ordering and the probe endpoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sedcat-backend/internal/config"
	"sedcat-backend/internal/interfaces/http/handlers"
	"sedcat-backend/internal/middleware"
	"sedcat-backend/internal/observability"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Collector *observability.Collector
	Health    *handlers.HealthHandler
	Catalog   *handlers.CatalogHandler
	SED       *handlers.SEDHandler
}

// NewRouter builds the chi router with the full middleware stack.
//
// Middleware order matters: request IDs come first so recovery and logging
// can tag their output, recovery wraps everything below it, and metrics
// run inside the router so the chi route pattern is available.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	if deps.Config.Metrics.Enabled {
		r.Use(middleware.Metrics(deps.Collector))
	}
	r.Use(middleware.Timeout(deps.Config.Server.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         deps.Config.CORS.MaxAge,
	}))

	r.Get("/health", deps.Health.Health)
	r.Get("/ready", deps.Health.Ready)

	if deps.Config.Metrics.Enabled {
		r.Method(http.MethodGet, deps.Config.Metrics.Path, promhttp.HandlerFor(
			deps.Collector.Registry(),
			promhttp.HandlerOpts{},
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalogs", deps.Catalog.ListCatalogs)
		r.Route("/catalogs/{variant}", func(r chi.Router) {
			r.Get("/sources", deps.Catalog.ListSources)
			r.Route("/sources/{name}", func(r chi.Router) {
				r.Get("/", deps.Catalog.GetSource)
				r.Get("/sed", deps.SED.GetSED)
				r.With(middleware.CircuitBreaker("sed-render", deps.Logger)).
					Get("/sed.png", deps.SED.RenderSED)
			})
		})
	})

	return r
}
