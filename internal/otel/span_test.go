package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecorder(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp.Tracer("eventsync-test")
}

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("nil tracer reuses span from context", func(t *testing.T) {
		t.Parallel()
		exporter, tracer := newRecorder(t)
		parentCtx, parent := tracer.Start(context.Background(), "parent")

		ctx, span := StartSpan(parentCtx, nil, "child")
		assert.Equal(t, parentCtx, ctx)
		assert.Equal(t, parent.SpanContext(), span.SpanContext())

		parent.End()
		require.Len(t, exporter.GetSpans(), 1)
	})

	t.Run("nil tracer without parent is a no-op", func(t *testing.T) {
		t.Parallel()
		_, span := StartSpan(context.Background(), nil, "eventbrite.publish")
		assert.False(t, span.SpanContext().IsValid())
		assert.NotPanics(t, func() { span.End() })
	})

	t.Run("tracer records name and attributes", func(t *testing.T) {
		t.Parallel()
		exporter, tracer := newRecorder(t)

		_, span := StartSpan(context.Background(), tracer, "eventbrite.copy_template",
			trace.WithAttributes(AttrCalendarEventID.String("abc123"), AttrRegistrationStep.String("copy_template")))
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "eventbrite.copy_template", spans[0].Name)

		attrs := map[string]string{}
		for _, kv := range spans[0].Attributes {
			attrs[string(kv.Key)] = kv.Value.AsString()
		}
		assert.Equal(t, "abc123", attrs["eventsync.calendar_event_id"])
		assert.Equal(t, "copy_template", attrs["registration.step"])
	})
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvents int
	}{
		{name: "nil error leaves span untouched", err: nil, wantStatus: codes.Unset, wantEvents: 0},
		{
			name:       "error sets generic status and records exception",
			err:        errors.New("Eventbrite API error: 401 - token=abc"),
			wantStatus: codes.Error,
			wantEvents: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exporter, tracer := newRecorder(t)
			_, span := tracer.Start(context.Background(), "github.put_contents")

			RecordError(span, tt.err)
			span.End()

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
			require.Len(t, spans[0].Events, tt.wantEvents)
			if tt.wantEvents > 0 {
				assert.Equal(t, "exception", spans[0].Events[0].Name)
				assert.Equal(t, "operation failed", spans[0].Status.Description)
				assert.NotContains(t, spans[0].Status.Description, "token")
			}
		})
	}

	assert.NotPanics(t, func() { RecordError(nil, errors.New("x")) })
}
