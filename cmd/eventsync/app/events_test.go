package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/eventbrite"
)

type fakeLister struct {
	events       []eventbrite.Event
	err          error
	organization string
	pageSize     int
}

func (f *fakeLister) ListOrganizationEvents(_ context.Context, organizationID string, pageSize int) ([]eventbrite.Event, error) {
	f.organization = organizationID
	f.pageSize = pageSize
	return f.events, f.err
}

func soundBathEvent() eventbrite.Event {
	return eventbrite.Event{
		ID:     "123",
		URL:    "https://www.eventbrite.com/e/evening-sound-bath-123",
		Status: "live",
		Name:   eventbrite.MultipartText{Text: "Evening Sound Bath"},
		Start:  eventbrite.DateTimeTZ{Timezone: "Pacific/Honolulu", Local: "2025-06-01T18:00:00"},
	}
}

func TestListEvents(t *testing.T) {
	t.Parallel()

	t.Run("table", func(t *testing.T) {
		t.Parallel()
		lister := &fakeLister{events: []eventbrite.Event{soundBathEvent()}}
		var out bytes.Buffer

		require.NoError(t, listEvents(context.Background(), &out, lister, "org-1", 5, formatTable))
		assert.Equal(t, "org-1", lister.organization)
		assert.Equal(t, 5, lister.pageSize)
		assert.Contains(t, out.String(), "Evening Sound Bath")
		assert.Contains(t, out.String(), "2025-06-01T18:00:00")
		assert.Contains(t, out.String(), "live")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		lister := &fakeLister{events: []eventbrite.Event{soundBathEvent()}}
		var out bytes.Buffer

		require.NoError(t, listEvents(context.Background(), &out, lister, "org-1", 10, formatJSON))
		var got []eventbrite.Event
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "123", got[0].ID)
	})

	t.Run("no events", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		require.NoError(t, listEvents(context.Background(), &out, &fakeLister{}, "org-1", 10, formatTable))
		assert.Contains(t, out.String(), "No events found")
	})

	t.Run("upstream error", func(t *testing.T) {
		t.Parallel()
		lister := &fakeLister{err: &event.UpstreamError{Platform: "Eventbrite", StatusCode: 401}}
		err := listEvents(context.Background(), &bytes.Buffer{}, lister, "org-1", 10, formatTable)
		assert.ErrorContains(t, err, "failed to list events")
	})

	t.Run("limit must be positive", func(t *testing.T) {
		t.Parallel()
		lister := &fakeLister{}
		err := listEvents(context.Background(), &bytes.Buffer{}, lister, "org-1", 0, formatTable)
		assert.ErrorContains(t, err, "limit must be positive")
		assert.Empty(t, lister.organization)
	})
}

func TestRegistrarFor(t *testing.T) {
	t.Parallel()

	disabled := false

	t.Run("registration disabled", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Registration.Enabled = &disabled

		_, _, err := registrarFor(cfg)
		assert.ErrorIs(t, err, errRegistrationDisabled)
	})

	t.Run("token from file", func(t *testing.T) {
		t.Parallel()
		tokenFile := filepath.Join(t.TempDir(), "eventbrite-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("eb-token\n"), 0600))

		cfg := config.Default()
		cfg.Credentials.EventbriteTokenFile = tokenFile
		cfg.Credentials.DisableKeyring = true

		registrar, token, err := registrarFor(cfg)
		require.NoError(t, err)
		assert.NotNil(t, registrar)
		assert.Equal(t, "eb-token", token)
	})

	t.Run("unreadable token file", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Credentials.EventbriteTokenFile = filepath.Join(t.TempDir(), "missing")
		cfg.Credentials.DisableKeyring = true

		_, _, err := registrarFor(cfg)
		var cfgErr *event.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, []string{config.SecretEventbriteToken}, cfgErr.Missing)
	})
}
