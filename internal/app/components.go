package app

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/content"
	"github.com/mindfulina/eventsync/internal/eventbrite"
	pkgsync "github.com/mindfulina/eventsync/internal/sync"
	"github.com/mindfulina/eventsync/internal/telemetry"
)

// Tracer names of the instrumented components
const (
	TracerNameSync       = "github.com/mindfulina/eventsync/sync"
	TracerNameEventbrite = "github.com/mindfulina/eventsync/eventbrite"
	TracerNameContent    = "github.com/mindfulina/eventsync/content"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Orchestrator runs one event sync per webhook call
	Orchestrator *pkgsync.Orchestrator

	// Registrar is nil when the registration integration is disabled
	Registrar pkgsync.Registrar

	Publisher pkgsync.Publisher
}

// NewRegistrar builds the Eventbrite registrar described by cfg. It returns
// nil when registration is disabled.
func NewRegistrar(cfg *config.Config, tp trace.TracerProvider) (*eventbrite.Registrar, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if !cfg.Registration.IsEnabled() {
		return nil, nil
	}

	r := cfg.Registration
	var opts []eventbrite.Option
	if tp != nil {
		opts = append(opts, eventbrite.WithTracer(tp.Tracer(TracerNameEventbrite)))
	}
	return eventbrite.NewRegistrar(eventbrite.Settings{
		BaseURL:                r.APIURL,
		TemplateEventID:        r.TemplateEventID,
		OrganizerID:            r.OrganizerID,
		VenueID:                r.VenueID,
		Timezone:               r.Timezone,
		Capacity:               r.Capacity,
		ImageID:                r.ImageID,
		DefaultName:            r.DefaultName,
		DefaultDescriptionHTML: r.DefaultDescriptionHTML,
		Timeout:                r.Timeout,
	}, opts...)
}

// NewPublisher builds the content publisher writing through store
func NewPublisher(cfg *config.Config, store content.Store, tp trace.TracerProvider) (*content.Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("content store cannot be nil")
	}

	c := cfg.Content
	var opts []content.PublisherOption
	if tp != nil {
		opts = append(opts, content.WithTracer(tp.Tracer(TracerNameContent)))
	}
	layout := content.Layout{
		Directory: c.Directory,
		Cover:     c.CoverImage,
		Title:     c.DefaultTitle,
		Location:  c.DefaultLocation,
		Body:      c.DefaultBody,
	}
	return content.NewPublisher(layout, store, opts...), nil
}

// NewComponents wires the integrations and orchestrator for cfg without an
// HTTP server, for one-shot command line runs.
func NewComponents(cfg *config.Config, tel *telemetry.Telemetry) (*AppComponents, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if tel == nil {
		return nil, fmt.Errorf("telemetry cannot be nil")
	}
	return buildSyncComponents(&eventSyncAppConfig{config: cfg, telemetry: tel})
}
