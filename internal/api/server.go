// Package api provides the HTTP surface of eventsync: the calendar webhook
// plus health, readiness, version and metrics routes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mindfulina/eventsync/internal/api/common"
)

const (
	// EventsPath receives calendar events
	EventsPath = "/events"

	// WebhookSecretHeader carries the shared secret sent by the calendar script
	WebhookSecretHeader = "X-AppsScript-Secret"

	// DefaultMaxBodyBytes caps the webhook payload size
	DefaultMaxBodyBytes int64 = 1 << 20
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	maxBodyBytes   int64
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler mounts a Prometheus scrape handler at /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes
func WithMaxBodyBytes(n int64) ServerOption {
	return func(cfg *serverConfig) {
		cfg.maxBodyBytes = n
	}
}

// NewServer creates the HTTP router serving the given processor
func NewServer(processor Processor, creds CredentialSource, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteErrorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteErrorResponse(w, "not found", http.StatusNotFound)
	})

	healthRoutes(r, processor, creds)
	r.Method(http.MethodPost, EventsPath, &eventsHandler{
		processor:    processor,
		creds:        creds,
		maxBodyBytes: cfg.maxBodyBytes,
	})

	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
