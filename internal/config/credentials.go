package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/mindfulina/eventsync/internal/event"
)

// Secret names, used as keyring users
const (
	SecretEventbriteToken = "eventbrite-token"
	SecretContentToken    = "content-token"
	SecretWebhookSecret   = "webhook-secret"
)

// Environment variables consulted when no secret file is configured
const (
	EnvEventbriteToken = "EVENTSYNC_EVENTBRITE_TOKEN"
	EnvContentToken    = "EVENTSYNC_CONTENT_TOKEN"
	EnvWebhookSecret   = "EVENTSYNC_WEBHOOK_SECRET"
)

// CredentialsConfig defines where secrets are read from
type CredentialsConfig struct {
	// EventbriteTokenFile is the path to a file containing the Eventbrite private token
	EventbriteTokenFile string `yaml:"eventbriteTokenFile,omitempty"`

	// ContentTokenFile is the path to a file containing the content repository token
	ContentTokenFile string `yaml:"contentTokenFile,omitempty"`

	// WebhookSecretFile is the path to a file containing the shared webhook secret
	WebhookSecretFile string `yaml:"webhookSecretFile,omitempty"`

	// KeyringService is the OS keyring service secrets are looked up under.
	// Defaults to "eventsync".
	KeyringService string `yaml:"keyringService,omitempty"`

	// DisableKeyring skips the OS keyring lookup
	DisableKeyring bool `yaml:"disableKeyring,omitempty"`
}

// GetSecret returns a secret using the following priority:
// 1. Read from the configured file if specified
// 2. Read from the environment variable
// 3. Read from the OS keyring
//
// A secret found nowhere is returned as "" without an error. Secret files are
// read on every call so rotated values are picked up.
func (c *CredentialsConfig) GetSecret(name string) (string, error) {
	file, env := c.sources(name)

	if file != "" {
		data, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return "", fmt.Errorf("failed to read %s from file %s: %w", name, file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value, nil
		}
	}

	if c.DisableKeyring {
		return "", nil
	}
	service := c.KeyringService
	if service == "" {
		service = defaultKeyring
	}
	value, err := keyring.Get(service, name)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("Keyring lookup failed", "service", service, "secret", name, "error", err)
		}
		return "", nil
	}
	return strings.TrimSpace(value), nil
}

// Credentials resolves the tokens of both integrations. A token that cannot be
// read is left empty so the orchestrator reports it as a configuration error.
func (c *CredentialsConfig) Credentials() event.Credentials {
	return event.Credentials{
		RegistrationToken: c.mustGet(SecretEventbriteToken),
		ContentToken:      c.mustGet(SecretContentToken),
	}
}

// WebhookSecret returns the shared secret expected from the calendar webhook,
// or "" when none is configured. A configured secret file that cannot be read
// is an error, never an empty secret.
func (c *CredentialsConfig) WebhookSecret() (string, error) {
	return c.GetSecret(SecretWebhookSecret)
}

func (c *CredentialsConfig) mustGet(name string) string {
	value, err := c.GetSecret(name)
	if err != nil {
		slog.Error("Failed to resolve secret", "secret", name, "error", err)
		return ""
	}
	return value
}

func (c *CredentialsConfig) sources(name string) (file, env string) {
	switch name {
	case SecretEventbriteToken:
		return c.EventbriteTokenFile, EnvEventbriteToken
	case SecretContentToken:
		return c.ContentTokenFile, EnvContentToken
	case SecretWebhookSecret:
		return c.WebhookSecretFile, EnvWebhookSecret
	default:
		return "", ""
	}
}
