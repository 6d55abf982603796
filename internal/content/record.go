package content

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mindfulina/eventsync/internal/event"
)

const (
	// DefaultDirectory is the repository directory holding event records
	DefaultDirectory = "events"
	// DefaultCover is the cover image path of every record
	DefaultCover = "/images/wide-shot.jpeg"
	// DefaultLocation replaces a blank event location
	DefaultLocation = "Mākālei Beach Park, Honolulu"
	// DefaultTitle replaces a blank event title
	DefaultTitle = "Mindfulina Event"
	// Extension is the file extension of event records
	Extension = ".md"

	frontMatterDelimiter = "---"
	dateLayout           = "2006-01-02"
)

// DefaultBody is the Markdown body used when the calendar event has no description
const DefaultBody = `Join us for a rejuvenating sound bath to reset and relax your mind, body, and spirit.

## What to know
Mākālei Beach Park features a small beach used by surfers, plus a tree-shaded area with picnic tables. Dogs allowed. Located at 3111 Diamond Head Rd, Honolulu, HI 96815.

## Before You Arrive
Consider taking a peaceful walk along the shoreline to connect with nature.

## What to Bring
- Towel, yoga mat, or blanket
- Swimsuit and sunscreen
- Optional: hat, sunglasses, water bottle

Let the ocean breeze and sound healing waves guide you into deep rest. See you there.`

// FrontMatter is the metadata header of an event record, in rendering order
type FrontMatter struct {
	Title                 string `yaml:"title"`
	Date                  string `yaml:"date"`
	Location              string `yaml:"location"`
	Cover                 string `yaml:"cover"`
	GoogleCalendarEventID string `yaml:"googleCalendarEventId"`
	IsAllDay              bool   `yaml:"isAllDay"`
	EventbriteLink        string `yaml:"eventbriteLink"`
}

// Record is a rendered event page ready to be written to a store
type Record struct {
	Path        string
	FrontMatter FrontMatter
	Body        string
}

// Layout controls where records are written and the defaults they carry
type Layout struct {
	Directory string
	Cover     string
	Title     string
	Location  string
	Body      string
}

func (l Layout) withDefaults() Layout {
	if l.Directory == "" {
		l.Directory = DefaultDirectory
	}
	if l.Cover == "" {
		l.Cover = DefaultCover
	}
	if l.Title == "" {
		l.Title = DefaultTitle
	}
	if l.Location == "" {
		l.Location = DefaultLocation
	}
	if l.Body == "" {
		l.Body = DefaultBody
	}
	return l
}

// RecordPath returns the repository path of the record for in. It depends only
// on the title and the calendar date of startTime as written by the sender.
func (l Layout) RecordPath(in *event.Input) (string, error) {
	l = l.withDefaults()

	// No location is applied: offset-bearing timestamps keep their own offset,
	// and bare dates and local timestamps are already on the sender's calendar.
	start, err := event.ParseTimestamp(in.StartTime, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid start time: %w", err)
	}
	name := start.Format(dateLayout) + "-" + Slugify(in.Title) + Extension
	return path.Join(l.Directory, name), nil
}

// Build assembles the record for in. registrationURL may be empty.
func (l Layout) Build(in *event.Input, registrationURL string) (*Record, error) {
	l = l.withDefaults()

	p, err := l.RecordPath(in)
	if err != nil {
		return nil, err
	}

	return &Record{
		Path: p,
		FrontMatter: FrontMatter{
			Title:                 orDefault(in.Title, l.Title),
			Date:                  in.StartTime,
			Location:              orDefault(in.Location, l.Location),
			Cover:                 l.Cover,
			GoogleCalendarEventID: in.CalendarEventID,
			IsAllDay:              in.IsAllDay,
			EventbriteLink:        registrationURL,
		},
		Body: orDefault(in.Description, l.Body),
	}, nil
}

// Render returns the Markdown document: YAML front matter between delimiters, a
// blank line and the body, terminated by a newline.
func (r *Record) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r.FrontMatter); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	buf.WriteString(frontMatterDelimiter + "\n\n")
	buf.WriteString(strings.TrimRight(r.Body, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// CommitMessage returns the message used when writing the record for in
func CommitMessage(in *event.Input) string {
	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = "New Event"
	}
	return fmt.Sprintf("feat: Add event %q from GCal ID %s", title, in.CalendarEventID)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
