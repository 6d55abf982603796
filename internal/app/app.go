// Package app provides application lifecycle management for the eventsync server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/telemetry"
)

// DefaultGracefulTimeout bounds in-flight orchestrations during shutdown
const DefaultGracefulTimeout = 30 * time.Second

// EventSyncApp serves the calendar webhook and owns the components behind it
type EventSyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// telemetry is set only when the app created the providers itself
	telemetry *telemetry.Telemetry

	stopOnce sync.Once
	stopErr  error
}

// Start serves HTTP until ctx is cancelled or the server fails, then shuts
// down gracefully. It returns nil after a clean shutdown.
func (app *EventSyncApp) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "address", app.httpServer.Addr)
		err := app.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		// Closed by Stop: release the watcher below.
		return http.ErrServerClosed
	})

	g.Go(func() error {
		<-gctx.Done()
		return app.Stop(DefaultGracefulTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server and flushes telemetry. Only the
// first call has an effect.
func (app *EventSyncApp) Stop(timeout time.Duration) error {
	app.stopOnce.Do(func() {
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
		if app.telemetry != nil {
			if err := app.telemetry.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}

		app.stopErr = errors.Join(errs...)
		if app.stopErr == nil {
			slog.Info("Server shutdown complete")
		}
	})
	return app.stopErr
}

// GetConfig returns the application configuration
func (app *EventSyncApp) GetConfig() *config.Config {
	return app.config
}

// GetComponents returns the wired integrations and orchestrator
func (app *EventSyncApp) GetComponents() *AppComponents {
	return app.components
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *EventSyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
