package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/cfadjust/internal/adapter/http/handler"
	"github.com/iho/cfadjust/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler    *handler.AccountHandler
	AdjustmentHandler *handler.AdjustmentHandler
	EntryHandler      *handler.EntryHandler
	HealthHandler     *handler.HealthHandler

	// Optional
	Idempotency *middleware.IdempotencyMiddleware
	RateLimiter *middleware.RateLimiter
	HTTPMetrics *middleware.HTTPMetrics
	Metrics     http.Handler
	Logger      zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/entries/extract", cfg.EntryHandler.Extract)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.AccountHandler.Get)
			r.Put("/", cfg.AccountHandler.Refresh)
		})

		r.Route("/adjustments", func(r chi.Router) {
			// Idempotency middleware for the workflows
			if cfg.Idempotency != nil {
				r.Use(cfg.Idempotency.Wrap)
			}

			r.Get("/", cfg.AdjustmentHandler.List)
			r.Post("/change-date", cfg.AdjustmentHandler.ChangeDate)
			r.Post("/split", cfg.AdjustmentHandler.Split)
			r.Post("/share", cfg.AdjustmentHandler.Share)
		})
	})

	return r
}
