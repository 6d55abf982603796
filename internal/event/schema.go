package event

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const inboundSchemaURL = "https://mindfulina.github.io/schemas/calendar-event.json"

// inboundSchema describes the shape of the webhook payload. Presence of required
// fields is checked by Validate so that all missing names are reported together.
const inboundSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "title":                 {"type": ["string", "null"]},
    "startTime":             {"type": ["string", "null"]},
    "endTime":               {"type": ["string", "null"]},
    "location":              {"type": ["string", "null"]},
    "description":           {"type": ["string", "null"]},
    "googleCalendarEventId": {"type": ["string", "null"]},
    "isAllDay":              {"type": ["boolean", "null"]}
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(inboundSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse inbound schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(inboundSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add inbound schema: %w", err)
	}
	return c.Compile(inboundSchemaURL)
})

// checkShape rejects payloads that are not JSON objects or carry fields of the wrong type.
func checkShape(data []byte) error {
	sch, err := compileSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{Reason: fmt.Sprintf("invalid JSON payload: %v", err)}
	}
	if err := sch.Validate(inst); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("payload does not match schema: %v", err)}
	}
	return nil
}
