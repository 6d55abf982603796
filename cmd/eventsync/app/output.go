package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/mindfulina/eventsync/internal/event"
)

// Output formats accepted by --format
const (
	formatTable = "table"
	formatJSON  = "json"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use %s or %s)", format, formatTable, formatJSON)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult writes an orchestration result as a table or as the webhook JSON body.
func printResult(out io.Writer, res *event.OrchestrationResult, format string) error {
	if format == formatJSON {
		return writeJSON(out, res)
	}

	table := tablewriter.NewWriter(out)
	table.Header("Integration", "Success", "Published", "Resource", "Message")

	if res.Registration != nil {
		r := res.Registration
		if err := table.Append([]string{
			"registration", strconv.FormatBool(r.Success), strconv.FormatBool(r.Published), resource(&r.IntegrationResult), r.Message,
		}); err != nil {
			return err
		}
	}
	if res.Content != nil {
		c := res.Content
		if err := table.Append([]string{
			"content", strconv.FormatBool(c.Success), "-", resource(c), c.Message,
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "Run %s: %s\n", res.RunID, res.OverallStatus); err != nil {
		return err
	}
	if res.Message != "" {
		_, err := fmt.Fprintln(out, res.Message)
		return err
	}
	return nil
}

func resource(r *event.IntegrationResult) string {
	if r.ResourceURL != "" {
		return r.ResourceURL
	}
	return r.ResourceID
}
