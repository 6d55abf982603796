// Package telemetry provides OpenTelemetry instrumentation for eventsync.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the orchestration metrics meter
	SyncMetricsMeterName = "github.com/mindfulina/eventsync/sync"
)

// SyncMetrics holds the OpenTelemetry instruments for orchestration metrics
type SyncMetrics struct {
	orchestrationDuration metric.Float64Histogram
	integrationResults    metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	orchestrationDuration, err := meter.Float64Histogram(
		"eventsync_orchestration_duration_seconds",
		metric.WithDescription("Duration of event orchestrations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	integrationResults, err := meter.Int64Counter(
		"eventsync_integration_results_total",
		metric.WithDescription("Integration attempts by platform and result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		orchestrationDuration: orchestrationDuration,
		integrationResults:    integrationResults,
	}, nil
}

// RecordOrchestration records the duration of one orchestration and its overall status
func (m *SyncMetrics) RecordOrchestration(ctx context.Context, overallStatus string, duration time.Duration) {
	if m == nil || m.orchestrationDuration == nil {
		return
	}

	m.orchestrationDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("overall_status", overallStatus)))
}

// RecordIntegration counts one integration attempt against a platform
func (m *SyncMetrics) RecordIntegration(ctx context.Context, integration string, success bool) {
	if m == nil || m.integrationResults == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("integration", integration),
		attribute.Bool("success", success),
	}
	m.integrationResults.Add(ctx, 1, metric.WithAttributes(attrs...))
}
