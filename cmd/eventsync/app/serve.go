package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	syncapp "github.com/mindfulina/eventsync/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: `Start the HTTP server that accepts calendar events on POST /events.

The configuration file (--config) selects:
- the Eventbrite template, organizer and venue, or disables registration
- the content backend (github or git) and the target repository
- where credentials are read from (secret files, environment, keyring)
- telemetry export

Without a configuration file the defaults are used. See examples/ for a sample.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("address", "", "Address to listen on, overriding server.address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []syncapp.EventSyncAppOptions{syncapp.WithConfig(cfg)}
	if cmd.Flags().Changed("address") {
		address, err := cmd.Flags().GetString("address")
		if err != nil {
			return fmt.Errorf("failed to read address flag: %w", err)
		}
		opts = append(opts, syncapp.WithAddress(address))
	}

	application, err := syncapp.NewEventSyncApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	slog.Info("Starting eventsync server",
		"address", application.GetHTTPServer().Addr,
		"registration_enabled", cfg.Registration.IsEnabled(),
		"content_backend", cfg.Content.Backend,
		"pid", os.Getpid())

	return application.Start(ctx)
}
