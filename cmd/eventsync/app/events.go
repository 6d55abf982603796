package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/eventbrite"

	syncapp "github.com/mindfulina/eventsync/internal/app"
)

const defaultListLimit = 10

var errRegistrationDisabled = errors.New("registration is disabled in the configuration")

// eventLister is the part of the Eventbrite API used by "events list"
type eventLister interface {
	ListOrganizationEvents(ctx context.Context, organizationID string, pageSize int) ([]eventbrite.Event, error)
}

func newEventsCmd() *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect registrations on Eventbrite",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent events of the configured organizer",
		Args:  cobra.NoArgs,
		RunE:  runEventsList,
	}
	listCmd.Flags().Int("limit", defaultListLimit, "Maximum number of events to list")
	listCmd.Flags().String("format", formatTable, "Output format (table|json)")

	eventsCmd.AddCommand(listCmd)
	return eventsCmd
}

func runEventsList(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to read limit flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to read format flag: %w", err)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registrar, token, err := registrarFor(cfg)
	if err != nil {
		return err
	}
	if cfg.Registration.OrganizerID == "" {
		return fmt.Errorf("registration.organizerID is required to list events")
	}

	return listEvents(cmd.Context(), cmd.OutOrStdout(), registrar.NewAPI(token), cfg.Registration.OrganizerID, limit, format)
}

// registrarFor builds the registrar of cfg together with the Eventbrite token
func registrarFor(cfg *config.Config) (*eventbrite.Registrar, string, error) {
	registrar, err := syncapp.NewRegistrar(cfg, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build registrar: %w", err)
	}
	if registrar == nil {
		return nil, "", errRegistrationDisabled
	}

	token := cfg.Credentials.Credentials().RegistrationToken
	if token == "" {
		return nil, "", &event.ConfigurationError{Missing: []string{config.SecretEventbriteToken}}
	}
	return registrar, token, nil
}

func listEvents(ctx context.Context, out io.Writer, api eventLister, organizerID string, limit int, format string) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	events, err := api.ListOrganizationEvents(ctx, organizerID, limit)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if format == formatJSON {
		return writeJSON(out, events)
	}

	if len(events) == 0 {
		_, err := fmt.Fprintln(out, "No events found")
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Start", "Status", "URL")
	for _, e := range events {
		if err := table.Append([]string{e.ID, e.Name.Text, e.Start.Local, e.Status, e.URL}); err != nil {
			return err
		}
	}
	return table.Render()
}
