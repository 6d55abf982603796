// Package otel holds tracing helpers shared by the integrations and the orchestrator.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys attached to eventsync spans
const (
	AttrRunID             = attribute.Key("eventsync.run_id")
	AttrCalendarEventID   = attribute.Key("eventsync.calendar_event_id")
	AttrRegistrationStep  = attribute.Key("registration.step")
	AttrRegistrationID    = attribute.Key("registration.id")
	AttrContentPath       = attribute.Key("content.path")
	AttrContentBackend    = attribute.Key("content.backend")
	AttrOverallStatus     = attribute.Key("eventsync.overall_status")
	AttrRegistrationShown = attribute.Key("registration.published")
)

// StartSpan starts a span on tracer, or returns the span already in ctx when
// tracer is nil so callers never need to check whether tracing is enabled.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. Nil spans and nil errors are ignored.
// The status description stays generic; upstream payloads may carry tokens or
// personal data and only belong in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
