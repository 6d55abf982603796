package event

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports an inbound payload that cannot be processed.
// It is raised before any external call is made.
type ValidationError struct {
	// Missing lists required fields that were absent or blank
	Missing []string
	// Invalid lists fields that were present but malformed, with the reason
	Invalid []string
	// Reason is set when the payload as a whole was rejected
	Reason string
	// Cause is the underlying read or decode error, if any
	Cause error
}

// Error returns the error message
func (e *ValidationError) Error() string {
	var parts []string
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, "; "))
	}
	if len(parts) == 0 {
		return "invalid event payload"
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying cause
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ConfigurationError reports missing credentials or settings. Like ValidationError
// it stops an orchestration before any integration runs.
type ConfigurationError struct {
	Missing []string
}

// Error returns the error message
func (e *ConfigurationError) Error() string {
	return "configuration error: missing " + strings.Join(e.Missing, ", ")
}

// UpstreamError is a non-success or malformed response from one of the platforms.
type UpstreamError struct {
	// Platform names the remote system, e.g. "Eventbrite" or "GitHub"
	Platform string
	// StatusCode is the HTTP status of the response, 0 when no response was received
	StatusCode int
	// Status is the HTTP status text
	Status string
	// Code is the machine readable error code reported by the platform
	Code string
	// Description is the human readable error description reported by the platform
	Description string
	// Message is a secondary free-form message some platforms send alongside Code
	Message string
	// Fields maps an input field name to the messages reported against it
	Fields map[string][]string
	// Body is the raw response body
	Body string
}

// Summary renders the most specific message available: the description, then the
// per-field messages in field order, then the error code or message, then the HTTP status text.
func (e *UpstreamError) Summary() string {
	if e.Description != "" {
		return e.Description
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		for _, k := range keys {
			msgs := e.Fields[k]
			if len(msgs) == 0 {
				continue
			}
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s: %s.", k, strings.Join(msgs, ", "))
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status != "" {
		return e.Status
	}
	return "unknown error"
}

// Error returns the error message
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Platform, e.StatusCode, e.Summary())
}

// Detail returns the raw upstream payload when there is one, otherwise the summary.
func (e *UpstreamError) Detail() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return e.Summary()
}
