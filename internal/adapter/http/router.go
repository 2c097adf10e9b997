package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/mailrecon/internal/adapter/http/handler"
	"github.com/iho/mailrecon/internal/adapter/http/middleware"
	"github.com/iho/mailrecon/internal/infrastructure/metrics"
	"github.com/iho/mailrecon/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ScanHandler           *handler.ScanHandler
	ReconciliationHandler *handler.ReconciliationHandler
	CommunicationHandler  *handler.CommunicationHandler
	PostingHandler        *handler.PostingHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	IdempotencyTTL        time.Duration
	RateLimiter           *middleware.RateLimiter
	Metrics               *metrics.Metrics
	MetricsHandler        http.Handler
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Scans
		r.Route("/scans", func(r chi.Router) {
			r.Post("/", cfg.ScanHandler.Trigger)
			r.Get("/state", cfg.ScanHandler.State)
		})

		// Reconciliation
		r.Route("/reconciliation/candidates", func(r chi.Router) {
			r.Post("/generate", cfg.ReconciliationHandler.Generate)
			r.Get("/", cfg.ReconciliationHandler.ListCandidates)
			r.Patch("/{id}", cfg.ReconciliationHandler.UpdateCandidate)
		})

		// Movements
		r.Route("/movements", func(r chi.Router) {
			r.Get("/", cfg.ReconciliationHandler.ListMovements)
			r.Get("/{id}", cfg.ReconciliationHandler.GetMovement)
		})

		// Communications
		r.Route("/communications", func(r chi.Router) {
			r.Get("/", cfg.CommunicationHandler.List)
			r.Get("/{id}", cfg.CommunicationHandler.Get)
		})

		// Postings
		r.Route("/postings", func(r chi.Router) {
			r.Post("/", cfg.PostingHandler.Create)
			r.Post("/rent", cfg.PostingHandler.CreateRent)
			r.Get("/{id}", cfg.PostingHandler.Get)
		})
	})

	return r
}
