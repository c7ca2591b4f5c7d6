// Package http exposes the descriptor service over a chi router.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolDescriptor/internal/interfaces/http/handlers"
	"github.com/turtacn/MolDescriptor/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	CalculationHandler *handlers.CalculationHandler
	HealthHandler      *handlers.HealthHandler

	CORSMiddleware      *middleware.CORSMiddleware
	LoggingMiddleware   *middleware.LoggingMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware

	// MaxBodySize caps /api/v1 request bodies; zero disables the cap.
	MaxBodySize int64

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}
	if cfg.RateLimitMiddleware != nil {
		r.Use(cfg.RateLimitMiddleware.Handler)
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.MaxBodySize(cfg.MaxBodySize))
		registerDescriptorRoutes(api, cfg.CalculationHandler)
		registerJobRoutes(api, cfg.CalculationHandler)
	})

	return r
}

// registerDescriptorRoutes mounts the synchronous calculation, catalogue and
// similarity endpoints.
func registerDescriptorRoutes(r chi.Router, h *handlers.CalculationHandler) {
	if h == nil {
		return
	}
	r.Route("/descriptors", func(dr chi.Router) {
		dr.Get("/", h.ListDescriptors)
		dr.Post("/calculate", h.Calculate)
		dr.Post("/similar", h.Similar)
	})
	r.Get("/molecules/{moleculeID}/descriptors", h.GetMoleculeResults)
}

// registerJobRoutes mounts the asynchronous job endpoints.
func registerJobRoutes(r chi.Router, h *handlers.CalculationHandler) {
	if h == nil {
		return
	}
	r.Route("/jobs", func(jr chi.Router) {
		jr.Post("/", h.SubmitJob)
		jr.Get("/{jobID}", h.GetJob)
	})
}

//Personal.AI order the ending
