package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// eventPublisher re-runs the publish step; *eventbrite.Registrar satisfies it
type eventPublisher interface {
	Publish(ctx context.Context, eventID, token string) (bool, error)
}

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <eventbrite-event-id>",
		Short: "Retry publishing an existing Eventbrite registration",
		Long: `Retry the publish step for a registration that was created but not listed,
for example after a sync finished with a partial status.`,
		Args: cobra.ExactArgs(1),
		RunE: runPublish,
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registrar, token, err := registrarFor(cfg)
	if err != nil {
		return err
	}
	return publishEvent(cmd.Context(), cmd.OutOrStdout(), registrar, args[0], token)
}

func publishEvent(ctx context.Context, out io.Writer, publisher eventPublisher, eventID, token string) error {
	if eventID == "" {
		return fmt.Errorf("event ID is required")
	}

	published, err := publisher.Publish(ctx, eventID, token)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", eventID, err)
	}
	if _, err := fmt.Fprintf(out, "Event %s published: %t\n", eventID, published); err != nil {
		return err
	}
	if !published {
		return fmt.Errorf("eventbrite did not report event %s as published", eventID)
	}
	return nil
}
