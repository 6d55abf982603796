package sync

import (
	"context"

	"github.com/mindfulina/eventsync/internal/event"
)

//go:generate mockgen -destination=mocks/mock_integrations.go -package=mocks -source=integrations.go Registrar,Publisher

// Registrar creates a registration listing for an event.
// Failures are reported in the result, never returned or panicked.
type Registrar interface {
	CreateRegistration(ctx context.Context, in *event.Input, token string) *event.RegistrationResult
}

// Publisher writes the content record of an event. registrationURL may be empty.
// Failures are reported in the result, never returned or panicked.
type Publisher interface {
	CommitEventRecord(ctx context.Context, in *event.Input, registrationURL, token string) *event.IntegrationResult
}
