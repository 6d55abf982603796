package eventbrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/otel"
)

const (
	// DefaultTemplateEventID is the Eventbrite event copied for every occurrence
	DefaultTemplateEventID = "1371879341039"
	// DefaultImageID is the uploaded image used as logo and listing image
	DefaultImageID = "1033232763"
	// DefaultCapacity is the target quantity of the primary ticket class
	DefaultCapacity = 25
	// DefaultTimezone is the display timezone of created events
	DefaultTimezone = "Pacific/Honolulu"
	// DefaultEventName replaces a blank calendar title
	DefaultEventName = "Mindfulina Event"
)

// Registration steps, used in logs, spans and failure messages
const (
	StepCopyTemplate = "copy_template"
	StepBrand        = "brand"
	StepDescribe     = "structured_content"
	StepCapacity     = "capacity"
	StepPublish      = "publish"
)

// Settings identifies the Eventbrite resources a registration is built from
type Settings struct {
	BaseURL                string
	TemplateEventID        string
	OrganizerID            string
	VenueID                string
	Timezone               string
	Capacity               int
	ImageID                string
	DefaultName            string
	DefaultDescriptionHTML string
	Timeout                time.Duration
}

// APIFactory builds an API bound to a private token
type APIFactory func(token string) API

// Option configures a Registrar
type Option func(*Registrar)

// WithAPIFactory replaces the HTTP client factory
func WithAPIFactory(f APIFactory) Option {
	return func(r *Registrar) {
		r.newAPI = f
	}
}

// WithTracer sets the tracer used for per-step spans
func WithTracer(t trace.Tracer) Option {
	return func(r *Registrar) {
		r.tracer = t
	}
}

// Registrar creates one registration listing per calendar event
type Registrar struct {
	settings Settings
	location *time.Location
	newAPI   APIFactory
	tracer   trace.Tracer
}

// NewRegistrar validates settings and returns a Registrar
func NewRegistrar(settings Settings, opts ...Option) (*Registrar, error) {
	if settings.TemplateEventID == "" {
		return nil, fmt.Errorf("template event id is required")
	}
	if settings.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", settings.Capacity)
	}
	if settings.Timezone == "" {
		settings.Timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", settings.Timezone, err)
	}
	if settings.DefaultName == "" {
		settings.DefaultName = DefaultEventName
	}
	if settings.DefaultDescriptionHTML == "" {
		settings.DefaultDescriptionHTML = DefaultDescriptionHTML
	}

	r := &Registrar{
		settings: settings,
		location: loc,
	}
	r.newAPI = func(token string) API {
		return NewClient(r.settings.BaseURL, token, r.settings.Timeout)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewAPI returns an API client for token, for operations outside CreateRegistration
func (r *Registrar) NewAPI(token string) API {
	return r.newAPI(token)
}

// CreateRegistration copies the template, brands it, writes its description,
// reconciles capacity and attempts to publish it.
//
// Any failure before publishing aborts the remaining steps and yields
// Success=false with whatever resource id and URL were already obtained.
// A publish attempt that fails or reports false leaves Success=true and Published=false.
func (r *Registrar) CreateRegistration(ctx context.Context, in *event.Input, token string) *event.RegistrationResult {
	res := &event.RegistrationResult{}
	api := r.newAPI(token)

	start, err := in.Start(r.location)
	if err != nil {
		return r.fail(ctx, in, res, StepCopyTemplate, fmt.Errorf("invalid start time: %w", err))
	}
	end, err := in.End(r.location)
	if err != nil {
		return r.fail(ctx, in, res, StepCopyTemplate, fmt.Errorf("invalid end time: %w", err))
	}

	name := strings.TrimSpace(in.Title)
	if name == "" {
		name = r.settings.DefaultName
	}

	// Step 1
	err = r.runStep(ctx, StepCopyTemplate, func(ctx context.Context) error {
		slog.InfoContext(ctx, "Copying Eventbrite template event",
			"template_id", r.settings.TemplateEventID, "name", name)
		created, err := api.CopyEvent(ctx, r.settings.TemplateEventID, CopyEventRequest{
			Name:      name,
			StartDate: start.UTC().Format(utcLayout),
			EndDate:   end.UTC().Format(utcLayout),
			Timezone:  r.settings.Timezone,
		})
		if err != nil {
			return err
		}
		if created == nil || created.ID == "" || created.URL == "" {
			return &event.UpstreamError{
				Platform:    platformName,
				Description: "event copy response did not include an event id and url",
			}
		}
		res.ResourceID = created.ID
		res.ResourceURL = created.URL
		trace.SpanFromContext(ctx).SetAttributes(otel.AttrRegistrationID.String(created.ID))
		slog.InfoContext(ctx, "Eventbrite event copied", "event_id", created.ID, "url", created.URL)
		return nil
	})
	if err != nil {
		return r.fail(ctx, in, res, StepCopyTemplate, err)
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{StepBrand, func(ctx context.Context) error { return r.brand(ctx, api, res.ResourceID) }},
		{StepDescribe, func(ctx context.Context) error { return r.describe(ctx, api, res.ResourceID, in.Description) }},
		{StepCapacity, func(ctx context.Context) error { return r.reconcileCapacity(ctx, api, res.ResourceID) }},
	}
	for _, s := range steps {
		if err := r.runStep(ctx, s.name, s.run); err != nil {
			return r.fail(ctx, in, res, s.name, err)
		}
	}

	// Step 5
	res.Success = true
	var published bool
	err = r.runStep(ctx, StepPublish, func(ctx context.Context) error {
		var err error
		published, err = api.Publish(ctx, res.ResourceID)
		trace.SpanFromContext(ctx).SetAttributes(otel.AttrRegistrationShown.Bool(published))
		return err
	})
	res.Published = err == nil && published

	switch {
	case err != nil:
		slog.WarnContext(ctx, "Eventbrite event created but publishing failed",
			"event_id", res.ResourceID, "error", err)
		res.Message = fmt.Sprintf("Eventbrite event created but publish was rejected: %v", err)
		res.ErrorDetail = errorDetail(err)
	case !published:
		slog.WarnContext(ctx, "Eventbrite event created but not reported as published", "event_id", res.ResourceID)
		res.Message = "Eventbrite event created but the platform did not report it as published."
	default:
		slog.InfoContext(ctx, "Eventbrite event published", "event_id", res.ResourceID)
		res.Message = "Eventbrite event copied, updated, and published."
	}
	return res
}

// Publish re-attempts the publish step for an existing event
func (r *Registrar) Publish(ctx context.Context, eventID, token string) (bool, error) {
	var published bool
	err := r.runStep(ctx, StepPublish, func(ctx context.Context) error {
		var err error
		published, err = r.newAPI(token).Publish(ctx, eventID)
		return err
	})
	return published, err
}

// brand sets the configured logo, venue and organizer on the copy.
// Skipped when none of them is configured.
func (r *Registrar) brand(ctx context.Context, api API, eventID string) error {
	update := EventUpdate{
		LogoID:      r.settings.ImageID,
		VenueID:     r.settings.VenueID,
		OrganizerID: r.settings.OrganizerID,
	}
	if update == (EventUpdate{}) {
		slog.DebugContext(ctx, "No logo, venue or organizer configured, skipping event update", "event_id", eventID)
		return nil
	}
	return api.UpdateEvent(ctx, eventID, update)
}

// describe publishes the listing description as structured content
func (r *Registrar) describe(ctx context.Context, api API, eventID, description string) error {
	modules := []Module{{
		Type: "text",
		Data: ModuleData{Body: &TextBody{
			Alignment: "left",
			Text:      FormatDescriptionHTML(description, r.settings.DefaultDescriptionHTML),
		}},
	}}
	if r.settings.ImageID != "" {
		modules = append(modules, Module{
			Type: "image",
			Data: ModuleData{Image: &ImageBody{ImageID: r.settings.ImageID}},
		})
	}
	return api.SetStructuredContent(ctx, eventID, StructuredContent{
		Modules: modules,
		Publish: true,
		Purpose: "listing",
	})
}

// reconcileCapacity brings the primary ticket class to the target capacity.
// It writes only when the current value differs.
func (r *Registrar) reconcileCapacity(ctx context.Context, api API, eventID string) error {
	classes, err := api.ListTicketClasses(ctx, eventID)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		slog.WarnContext(ctx, "No ticket classes found, skipping capacity update", "event_id", eventID)
		return nil
	}

	primary := classes[0]
	if primary.QuantityTotal == r.settings.Capacity {
		slog.DebugContext(ctx, "Ticket class capacity already matches",
			"event_id", eventID, "ticket_class_id", primary.ID, "capacity", primary.QuantityTotal)
		return nil
	}

	slog.InfoContext(ctx, "Updating ticket class capacity",
		"event_id", eventID, "ticket_class_id", primary.ID,
		"from", primary.QuantityTotal, "to", r.settings.Capacity)
	return api.UpdateTicketClassCapacity(ctx, eventID, primary.ID, r.settings.Capacity)
}

func (r *Registrar) runStep(ctx context.Context, name string, run func(context.Context) error) error {
	ctx, span := otel.StartSpan(ctx, r.tracer, "eventbrite."+name,
		trace.WithAttributes(otel.AttrRegistrationStep.String(name)))
	defer span.End()

	err := run(ctx)
	otel.RecordError(span, err)
	return err
}

func (*Registrar) fail(
	ctx context.Context, in *event.Input, res *event.RegistrationResult, step string, err error,
) *event.RegistrationResult {
	slog.ErrorContext(ctx, "Eventbrite integration failed",
		"step", step,
		"calendar_event_id", in.CalendarEventID,
		"event_id", res.ResourceID,
		"error", err)

	res.Success = false
	res.Published = false
	res.Message = fmt.Sprintf("Eventbrite integration failed at %s: %v", step, err)
	res.ErrorDetail = errorDetail(err)
	return res
}

// errorDetail returns the raw upstream payload when err carries one
func errorDetail(err error) string {
	var upstream *event.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Detail()
	}
	return err.Error()
}
