package api

import (
	"context"
	"io"

	"github.com/mindfulina/eventsync/internal/event"
)

// Processor runs one orchestration for a raw webhook payload
type Processor interface {
	RegistrationEnabled() bool
	ProcessPayload(ctx context.Context, r io.Reader, creds event.Credentials) *event.OrchestrationResult
}

// CredentialSource resolves secrets on every request, so rotated values are picked up
type CredentialSource interface {
	Credentials() event.Credentials
	// WebhookSecret returns "" when no secret is configured
	WebhookSecret() (string, error)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status  string   `json:"status"`
	Missing []string `json:"missing,omitempty"`
}
