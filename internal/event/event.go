// Package event defines the calendar event payload accepted by eventsync and the
// result records shared by the registration and content integrations.
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// FieldTitle is the JSON name of the event title
	FieldTitle = "title"
	// FieldStartTime is the JSON name of the event start timestamp
	FieldStartTime = "startTime"
	// FieldEndTime is the JSON name of the event end timestamp
	FieldEndTime = "endTime"
	// FieldCalendarEventID is the JSON name of the upstream calendar event identifier
	FieldCalendarEventID = "googleCalendarEventId"

	// dateOnlyLayout is used by all-day calendar events
	dateOnlyLayout = "2006-01-02"
	// localLayout is a timestamp without an offset
	localLayout = "2006-01-02T15:04:05"
)

// Input is one calendar event as delivered by the calendar webhook.
// Timestamps are kept verbatim so the content record can echo the original value.
type Input struct {
	Title           string `json:"title"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
	CalendarEventID string `json:"googleCalendarEventId"`
	IsAllDay        bool   `json:"isAllDay,omitempty"`
}

// Decode reads a JSON payload, checks its shape against the inbound schema and
// returns the decoded event. Required fields are not checked here, see Validate.
func Decode(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("failed to read payload: %v", err), Cause: err}
	}

	if err := checkShape(data); err != nil {
		return nil, err
	}

	var in Input
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&in); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid JSON payload: %v", err)}
	}
	return &in, nil
}

// Validate checks that the fields needed by the enabled integrations are present
// and parseable. endTime is only required when requireEnd is set.
func (in *Input) Validate(requireEnd bool) error {
	verr := &ValidationError{}

	if strings.TrimSpace(in.Title) == "" {
		verr.Missing = append(verr.Missing, FieldTitle)
	}
	if strings.TrimSpace(in.StartTime) == "" {
		verr.Missing = append(verr.Missing, FieldStartTime)
	} else if _, err := ParseTimestamp(in.StartTime, time.UTC); err != nil {
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s: %v", FieldStartTime, err))
	}
	if strings.TrimSpace(in.CalendarEventID) == "" {
		verr.Missing = append(verr.Missing, FieldCalendarEventID)
	}
	if strings.TrimSpace(in.EndTime) == "" {
		if requireEnd {
			verr.Missing = append(verr.Missing, FieldEndTime)
		}
	} else if _, err := ParseTimestamp(in.EndTime, time.UTC); err != nil {
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s: %v", FieldEndTime, err))
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

// Start returns the parsed start time. Date-only values are placed at midnight in loc.
func (in *Input) Start(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(in.StartTime, loc)
}

// End returns the parsed end time. Date-only values are placed at midnight in loc.
func (in *Input) End(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(in.EndTime, loc)
}

// ParseTimestamp accepts RFC 3339 timestamps, offset-less local timestamps and
// bare dates. The offset of an RFC 3339 value is preserved, so the calendar date
// of the returned time is the date the sender meant.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(localLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Credentials holds the tokens used against the two downstream platforms.
type Credentials struct {
	RegistrationToken string
	ContentToken      string
}

// Missing lists the credential names that are required but empty.
func (c Credentials) Missing(registrationEnabled bool) []string {
	var missing []string
	if registrationEnabled && strings.TrimSpace(c.RegistrationToken) == "" {
		missing = append(missing, "registration token")
	}
	if strings.TrimSpace(c.ContentToken) == "" {
		missing = append(missing, "content token")
	}
	return missing
}
