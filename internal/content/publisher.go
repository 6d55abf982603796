// Package content renders calendar events as Markdown records and writes them to
// the repository behind the public event listing.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/otel"
)

// File is one create-or-overwrite write
type File struct {
	Path    string
	Content []byte
	Message string
}

// Revision describes a completed write
type Revision struct {
	// ID identifies the written blob or commit
	ID string
	// URL is a browsable location of the file, empty when the store has none
	URL string
}

// Store writes files to a content repository.
// Put overwrites an existing file at the same path.
type Store interface {
	Name() string
	Put(ctx context.Context, token string, file File) (*Revision, error)
}

// Publisher writes one event record per calendar event
type Publisher struct {
	layout Layout
	store  Store
	tracer trace.Tracer
}

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithTracer sets the tracer used for the commit span
func WithTracer(t trace.Tracer) PublisherOption {
	return func(p *Publisher) {
		p.tracer = t
	}
}

// NewPublisher creates a Publisher writing records laid out by layout into store
func NewPublisher(layout Layout, store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		layout: layout.withDefaults(),
		store:  store,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Layout returns the effective layout
func (p *Publisher) Layout() Layout {
	return p.layout
}

// CommitEventRecord renders the record for in and writes it at its deterministic path.
// registrationURL is written verbatim into the front matter and may be empty.
func (p *Publisher) CommitEventRecord(
	ctx context.Context, in *event.Input, registrationURL, token string,
) *event.IntegrationResult {
	ctx, span := otel.StartSpan(ctx, p.tracer, "content.commit_event_record",
		trace.WithAttributes(
			otel.AttrCalendarEventID.String(in.CalendarEventID),
			otel.AttrContentBackend.String(p.store.Name()),
		))
	defer span.End()

	rec, err := p.layout.Build(in, registrationURL)
	if err != nil {
		otel.RecordError(span, err)
		return p.fail(ctx, in, "", err)
	}
	span.SetAttributes(otel.AttrContentPath.String(rec.Path))

	data, err := rec.Render()
	if err != nil {
		otel.RecordError(span, err)
		return p.fail(ctx, in, rec.Path, err)
	}

	slog.InfoContext(ctx, "Writing event record",
		"backend", p.store.Name(),
		"path", rec.Path,
		"has_registration_link", registrationURL != "")

	rev, err := p.store.Put(ctx, token, File{
		Path:    rec.Path,
		Content: data,
		Message: CommitMessage(in),
	})
	if err != nil {
		otel.RecordError(span, err)
		return p.fail(ctx, in, rec.Path, err)
	}

	slog.InfoContext(ctx, "Event record written", "path", rec.Path, "revision", rev.ID, "url", rev.URL)
	return &event.IntegrationResult{
		Success:     true,
		Message:     fmt.Sprintf("%s event record written to %s.", p.store.Name(), rec.Path),
		ResourceID:  rec.Path,
		ResourceURL: rev.URL,
	}
}

func (p *Publisher) fail(ctx context.Context, in *event.Input, recordPath string, err error) *event.IntegrationResult {
	slog.ErrorContext(ctx, "Content integration failed",
		"backend", p.store.Name(),
		"path", recordPath,
		"calendar_event_id", in.CalendarEventID,
		"error", err)

	detail := err.Error()
	var upstream *event.UpstreamError
	if errors.As(err, &upstream) {
		detail = upstream.Detail()
	}
	return &event.IntegrationResult{
		Success:     false,
		Message:     fmt.Sprintf("%s integration failed: %v", p.store.Name(), err),
		ResourceID:  recordPath,
		ErrorDetail: detail,
	}
}
