// Package app provides the command line entry points of eventsync.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/versions"
)

// LogLevel is the level of the process logger. --debug lowers it to debug.
var LogLevel = new(slog.LevelVar)

// NewRootCmd creates a new root command for eventsync.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "eventsync",
		DisableAutoGenTag: true,
		Short:             "Calendar event sync orchestrator",
		Long: `eventsync turns a calendar event into an Eventbrite registration and a
content record in the events section of a website repository.

Run "eventsync serve" to accept events from the calendar webhook, or
"eventsync sync" to process a single event payload from a file.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if viper.GetBool("debug") {
				LogLevel.Set(slog.LevelDebug)
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to read format flag: %w", err)
			}

			if format == formatJSON {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			slog.Info("eventsync version",
				"version", info.Version,
				"commit", info.Commit,
				"built", info.BuildDate,
				"go", info.GoVersion,
				"platform", info.Platform)
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// loadConfig reads the file named by --config, or the defaults when none is given.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")

	var cfg *config.Config
	if path == "" {
		slog.Info("No configuration file given, using defaults")
		cfg = config.Default()
	} else {
		loaded, err := config.LoadConfig(config.WithConfigPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		slog.Info("Loaded configuration", "path", path)
		cfg = loaded
	}

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	return cfg, nil
}
