package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mindfulina/eventsync/internal/api"
	"github.com/mindfulina/eventsync/internal/app/storage"
	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/git"
	pkgsync "github.com/mindfulina/eventsync/internal/sync"
	"github.com/mindfulina/eventsync/internal/telemetry"
)

const (
	defaultHTTPAddress = ":8080"
	// An orchestration makes up to eight sequential platform calls.
	defaultRequestTimeout = 75 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = defaultRequestTimeout + 15*time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// EventSyncAppOptions is a function that configures the app builder
type EventSyncAppOptions func(*eventSyncAppConfig) error

type eventSyncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	registrar   pkgsync.Registrar
	publisher   pkgsync.Publisher
	gitClient   git.Client
	credentials api.CredentialSource
	telemetry   *telemetry.Telemetry

	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...EventSyncAppOptions) (*eventSyncAppConfig, error) {
	cfg := &eventSyncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	s := cfg.config.Server
	if cfg.address == "" {
		cfg.address = s.Address
	}
	if cfg.address == "" {
		cfg.address = defaultHTTPAddress
	}
	if s.ReadTimeout > 0 {
		cfg.readTimeout = s.ReadTimeout
	}
	if s.WriteTimeout > 0 {
		cfg.writeTimeout = s.WriteTimeout
	}
	if s.IdleTimeout > 0 {
		cfg.idleTimeout = s.IdleTimeout
	}

	return cfg, nil
}

// NewEventSyncApp builds the orchestrator and the HTTP server around it
func NewEventSyncApp(ctx context.Context, opts ...EventSyncAppOptions) (*EventSyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	ownsTelemetry := false
	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		ownsTelemetry = true
	}

	components, err := buildSyncComponents(cfg)
	if err != nil {
		if ownsTelemetry {
			_ = cfg.telemetry.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components.Orchestrator)
	if err != nil {
		if ownsTelemetry {
			_ = cfg.telemetry.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	app := &EventSyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
	}
	if ownsTelemetry {
		app.telemetry = cfg.telemetry
	}
	return app, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding server.address
func WithAddress(addr string) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		switch host {
		case "localhost":
			host = "127.0.0.1"
		case "":
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRegistrar injects the registration integration (for testing)
func WithRegistrar(r pkgsync.Registrar) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		cfg.registrar = r
		return nil
	}
}

// WithPublisher injects the content integration (for testing)
func WithPublisher(p pkgsync.Publisher) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		cfg.publisher = p
		return nil
	}
}

// WithGitClient replaces the go-git client used by the git content backend
func WithGitClient(c git.Client) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		cfg.gitClient = c
		return nil
	}
}

// WithCredentialSource replaces the configured credential chain
func WithCredentialSource(src api.CredentialSource) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		cfg.credentials = src
		return nil
	}
}

// WithTelemetry uses providers owned by the caller instead of creating them
// from the telemetry config. The app does not shut them down.
func WithTelemetry(t *telemetry.Telemetry) EventSyncAppOptions {
	return func(cfg *eventSyncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildSyncComponents wires the integrations into the orchestrator
func buildSyncComponents(b *eventSyncAppConfig) (*AppComponents, error) {
	slog.Info("Initializing sync components")
	tp := b.telemetry.TracerProvider()

	registrar := b.registrar
	if registrar == nil && b.config.Registration.IsEnabled() {
		ebRegistrar, err := NewRegistrar(b.config, tp)
		if err != nil {
			return nil, fmt.Errorf("failed to create registrar: %w", err)
		}
		registrar = ebRegistrar
	}
	if !b.config.Registration.IsEnabled() {
		registrar = nil
		slog.Info("Registration disabled, running in content-only mode")
	}

	publisher := b.publisher
	if publisher == nil {
		store, err := storage.NewContentStore(&b.config.Content, b.gitClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create content store: %w", err)
		}
		publisher, err = NewPublisher(b.config, store, tp)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}
	}

	syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}

	orchestratorOpts := []pkgsync.Option{
		pkgsync.WithTracer(b.telemetry.Tracer(TracerNameSync)),
		pkgsync.WithMetrics(syncMetrics),
	}
	if registrar != nil {
		orchestratorOpts = append(orchestratorOpts, pkgsync.WithRegistrar(registrar))
	}

	orchestrator, err := pkgsync.New(publisher, orchestratorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	slog.Info("Sync components initialized successfully",
		"registration_enabled", orchestrator.RegistrationEnabled(),
		"content_backend", b.config.Content.Backend)

	return &AppComponents{
		Orchestrator: orchestrator,
		Registrar:    registrar,
		Publisher:    publisher,
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *eventSyncAppConfig, orchestrator *pkgsync.Orchestrator) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	middlewares := b.middlewares
	if middlewares == nil {
		middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Telemetry goes first so rejected and timed out requests are still observed.
	metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	middlewares = append([]func(http.Handler) http.Handler{
		telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		metricsMiddleware,
	}, middlewares...)

	creds := b.credentials
	if creds == nil {
		creds = &b.config.Credentials
	}

	serverOpts := []api.ServerOption{api.WithMiddlewares(middlewares...)}
	if h := b.telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
		slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
	}

	server := &http.Server{
		Addr:         b.address,
		Handler:      api.NewServer(orchestrator, creds, serverOpts...),
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
