package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/otel"
	"github.com/mindfulina/eventsync/internal/telemetry"
)

// Integration names used in logs and metrics
const (
	IntegrationRegistration = "registration"
	IntegrationContent      = "content"
)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRegistrar enables the registration integration. Without it the
// orchestrator runs in content-only mode.
func WithRegistrar(r Registrar) Option {
	return func(o *Orchestrator) {
		o.registrar = r
	}
}

// WithTracer sets the tracer used for the orchestration span
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithMetrics sets the orchestration metrics. Nil disables metrics.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithRunIDGenerator replaces the run id generator
func WithRunIDGenerator(f func() string) Option {
	return func(o *Orchestrator) {
		o.newRunID = f
	}
}

// Orchestrator sequences the registration and content integrations for one
// calendar event and composes their results. It holds no per-event state and
// is safe for concurrent use.
type Orchestrator struct {
	registrar Registrar
	publisher Publisher
	tracer    trace.Tracer
	metrics   *telemetry.SyncMetrics
	newRunID  func() string
}

// New creates an Orchestrator writing content through publisher
func New(publisher Publisher, opts ...Option) (*Orchestrator, error) {
	if publisher == nil {
		return nil, fmt.Errorf("content publisher is required")
	}
	o := &Orchestrator{
		publisher: publisher,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RegistrationEnabled reports whether registrations are created
func (o *Orchestrator) RegistrationEnabled() bool {
	return o.registrar != nil
}

// ProcessPayload decodes a JSON event payload and processes it
func (o *Orchestrator) ProcessPayload(ctx context.Context, r io.Reader, creds event.Credentials) *event.OrchestrationResult {
	in, err := event.Decode(r)
	if err != nil {
		res := o.newResult()
		o.reject(ctx, res, err)
		return res
	}
	return o.Process(ctx, in, creds)
}

// Process runs one orchestration:
//
//  1. validate the event and credentials before any external call
//  2. create the registration, when enabled
//  3. write the content record, advertising the registration only if published
//  4. fold both results into an outcome and response code
//
// Process never panics. A panic escaping an integration is reported as a
// critical failure that still carries the results already obtained.
func (o *Orchestrator) Process(ctx context.Context, in *event.Input, creds event.Credentials) (res *event.OrchestrationResult) {
	started := time.Now()
	res = o.newResult()

	ctx, span := otel.StartSpan(ctx, o.tracer, "sync.process",
		trace.WithAttributes(otel.AttrRunID.String(res.RunID)))
	defer span.End()

	logger := slog.Default().With("run_id", res.RunID)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("orchestration panicked in state %s: %v", res.State, r)
			logger.ErrorContext(ctx, "Critical orchestration failure",
				"state", string(res.State), "panic", r, "stack", string(debug.Stack()))
			res.State = event.StateCriticalFailure
			res.OverallStatus = event.StatusCriticalFailure
			res.ResponseCode = http.StatusInternalServerError
			res.Message = "Critical failure during event processing: " + fmt.Sprint(r)
			res.Err = err
			otel.RecordError(span, err)
		}
		span.SetAttributes(otel.AttrOverallStatus.String(res.OverallStatus))
		o.metrics.RecordOrchestration(ctx, res.OverallStatus, time.Since(started))
	}()

	res.State = event.StateValidating
	if in == nil {
		o.reject(ctx, res, &event.ValidationError{Reason: "event payload is empty"})
		return res
	}
	span.SetAttributes(otel.AttrCalendarEventID.String(in.CalendarEventID))
	logger = logger.With("calendar_event_id", in.CalendarEventID)

	if err := in.Validate(o.RegistrationEnabled()); err != nil {
		o.reject(ctx, res, err)
		return res
	}
	if missing := creds.Missing(o.RegistrationEnabled()); len(missing) > 0 {
		o.reject(ctx, res, &event.ConfigurationError{Missing: missing})
		return res
	}

	logger.InfoContext(ctx, "Processing calendar event",
		"title", in.Title, "registration_enabled", o.RegistrationEnabled())

	if o.RegistrationEnabled() {
		res.State = event.StateRegistrationInFlight
		res.Registration = o.registrar.CreateRegistration(ctx, in, creds.RegistrationToken)
		if res.Registration == nil {
			res.Registration = &event.RegistrationResult{IntegrationResult: event.IntegrationResult{
				Message: "Registration integration returned no result.",
			}}
		}
		o.metrics.RecordIntegration(ctx, IntegrationRegistration, res.Registration.Listed())
		logger.InfoContext(ctx, "Registration integration finished",
			"success", res.Registration.Success,
			"published", res.Registration.Published,
			"resource_id", res.Registration.ResourceID)
	}

	link := RegistrationLink(res.Registration)
	if res.Registration != nil && link == "" && res.Registration.ResourceURL != "" {
		logger.WarnContext(ctx, "Registration not published, content record will not link to it",
			"resource_url", res.Registration.ResourceURL)
	}

	res.State = event.StateContentInFlight
	res.Content = o.publisher.CommitEventRecord(ctx, in, link, creds.ContentToken)
	if res.Content == nil {
		res.Content = &event.IntegrationResult{Message: "Content integration returned no result."}
	}
	o.metrics.RecordIntegration(ctx, IntegrationContent, res.Content.Success)
	logger.InfoContext(ctx, "Content integration finished",
		"success", res.Content.Success, "resource_id", res.Content.ResourceID)

	res.Outcome = Fold(res.Registration, res.Content, o.RegistrationEnabled())
	res.OverallStatus = string(res.Outcome)
	res.ResponseCode = ResponseCode(res.Outcome)
	res.State = event.StateComposed

	logger.InfoContext(ctx, "Orchestration composed",
		"overall_status", res.OverallStatus, "response_code", res.ResponseCode)
	return res
}

func (o *Orchestrator) newResult() *event.OrchestrationResult {
	return &event.OrchestrationResult{
		RunID: o.newRunID(),
		State: event.StateStart,
	}
}

// reject terminates an orchestration before any integration ran
func (*Orchestrator) reject(ctx context.Context, res *event.OrchestrationResult, err error) {
	res.State = event.StateCriticalFailure
	res.Err = err
	res.Message = err.Error()

	var cfgErr *event.ConfigurationError
	if errors.As(err, &cfgErr) {
		res.OverallStatus = event.StatusConfigurationError
		res.ResponseCode = http.StatusInternalServerError
		slog.ErrorContext(ctx, "Rejected event: configuration error", "run_id", res.RunID, "error", err)
		return
	}

	res.OverallStatus = event.StatusInvalidRequest
	res.ResponseCode = http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		res.ResponseCode = http.StatusRequestEntityTooLarge
	}
	slog.WarnContext(ctx, "Rejected event: invalid request", "run_id", res.RunID, "error", err)
}
