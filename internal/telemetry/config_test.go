package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.False(t, cfg.GetInsecure())
	assert.InDelta(t, DefaultSampling, (&TracingConfig{}).GetSampling(), 0.0001)

	cfg = &Config{ServiceName: "sync-worker", ServiceVersion: "1.2.3", Endpoint: "otel:4318", Insecure: true}
	assert.Equal(t, "sync-worker", cfg.GetServiceName())
	assert.Equal(t, "1.2.3", cfg.GetServiceVersion())
	assert.Equal(t, "otel:4318", cfg.GetEndpoint())
	assert.True(t, cfg.GetInsecure())
	assert.InDelta(t, 0.25, (&TracingConfig{Sampling: 0.25}).GetSampling(), 0.0001)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		config        *Config
		errorContains string
	}{
		{name: "nil config", config: nil},
		{name: "disabled ignores bad values", config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 5}}},
		{name: "valid sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 0.5}}},
		{
			name:          "sampling above one",
			config:        &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			errorContains: "tracing: sampling must be between",
		},
		{
			name:          "negative sampling",
			config:        &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			errorContains: "sampling must be between",
		},
		{
			name:   "prometheus only",
			config: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Prometheus: true, DisableOTLP: true}},
		},
		{
			name:          "no metrics reader",
			config:        &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, DisableOTLP: true}},
			errorContains: "metrics: disableOtlp requires prometheus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPrometheusEnabled(t *testing.T) {
	t.Parallel()

	var nilCfg *Config
	assert.False(t, nilCfg.PrometheusEnabled())
	assert.False(t, (&Config{Metrics: &MetricsConfig{Enabled: true, Prometheus: true}}).PrometheusEnabled())
	assert.False(t, (&Config{Enabled: true, Metrics: &MetricsConfig{Prometheus: true}}).PrometheusEnabled())
	assert.False(t, (&Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true}}).PrometheusEnabled())
	assert.True(t, (&Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Prometheus: true}}).PrometheusEnabled())
}
