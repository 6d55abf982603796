package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"

	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/telemetry"

	syncapp "github.com/mindfulina/eventsync/internal/app"
)

const telemetryShutdownTimeout = 5 * time.Second

// payloadProcessor runs one orchestration; *sync.Orchestrator satisfies it
type payloadProcessor interface {
	ProcessPayload(ctx context.Context, body io.Reader, creds event.Credentials) *event.OrchestrationResult
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Process one event payload from a file",
		Long: `Process one event payload the way the webhook would and print the combined
result. The payload is the webhook JSON body; comments and trailing commas
are accepted. The command exits non-zero unless both integrations succeeded.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}
	cmd.Flags().StringP("file", "f", "", "Event payload file, or - to read standard input (required)")
	cmd.Flags().String("format", formatTable, "Output format (table|json)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("failed to read file flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to read format flag: %w", err)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	payload, err := readPayload(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	components, err := syncapp.NewComponents(cfg, tel)
	if err != nil {
		return fmt.Errorf("failed to build components: %w", err)
	}

	return syncPayload(ctx, cmd.OutOrStdout(), components.Orchestrator, cfg.Credentials.Credentials(), payload, format)
}

// readPayload reads the payload from path ("-" is stdin) and strips JSONC
// comments and trailing commas.
func readPayload(stdin io.Reader, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}

	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	return standard, nil
}

// syncPayload runs the orchestration, prints its result and fails unless the outcome is success.
func syncPayload(
	ctx context.Context,
	out io.Writer,
	processor payloadProcessor,
	creds event.Credentials,
	payload []byte,
	format string,
) error {
	res := processor.ProcessPayload(ctx, bytes.NewReader(payload), creds)
	if err := printResult(out, res, format); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}
	if res.Outcome != event.OutcomeSuccess {
		return fmt.Errorf("event sync finished with status %s", res.OverallStatus)
	}
	return nil
}
