package sync

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/sync/mocks"
)

const eventbriteURL = "https://www.eventbrite.com/e/evening-sound-bath-123"

var testCreds = event.Credentials{RegistrationToken: "eb-token", ContentToken: "gh-token"}

func eveningSoundBath() *event.Input {
	return &event.Input{
		Title:           "Evening Sound Bath",
		StartTime:       "2025-06-01T18:00:00-10:00",
		EndTime:         "2025-06-01T18:45:00-10:00",
		CalendarEventID: "abc123",
	}
}

func contentWritten() *event.IntegrationResult {
	return &event.IntegrationResult{
		Success:     true,
		ResourceID:  "events/2025-06-01-evening-sound-bath.md",
		ResourceURL: "https://github.com/mindfulina/site/blob/main/events/2025-06-01-evening-sound-bath.md",
	}
}

func newTestOrchestrator(t *testing.T, withRegistrar bool) (*Orchestrator, *mocks.MockRegistrar, *mocks.MockPublisher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	registrar := mocks.NewMockRegistrar(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)

	opts := []Option{WithRunIDGenerator(func() string { return "run-1" })}
	if withRegistrar {
		opts = append(opts, WithRegistrar(registrar))
	}
	o, err := New(publisher, opts...)
	require.NoError(t, err)
	return o, registrar, publisher
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
}

func TestProcess_PublishedRegistrationIsLinked(t *testing.T) {
	t.Parallel()

	o, registrar, publisher := newTestOrchestrator(t, true)
	in := eveningSoundBath()

	gomock.InOrder(
		registrar.EXPECT().CreateRegistration(gomock.Any(), in, "eb-token").
			Return(registration(true, true, eventbriteURL)),
		publisher.EXPECT().CommitEventRecord(gomock.Any(), in, eventbriteURL, "gh-token").
			Return(contentWritten()),
	)

	res := o.Process(context.Background(), in, testCreds)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, event.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "success", res.OverallStatus)
	assert.Equal(t, http.StatusOK, res.ResponseCode)
	assert.Equal(t, event.StateComposed, res.State)
	assert.Empty(t, res.Message)
	assert.NoError(t, res.Err)
	assert.True(t, res.Registration.Published)
	assert.True(t, res.Content.Success)
}

func TestProcess_UnpublishedRegistrationIsNotLinked(t *testing.T) {
	t.Parallel()

	o, registrar, publisher := newTestOrchestrator(t, true)

	unpublished := registration(true, false, eventbriteURL)
	unpublished.ErrorDetail = `{"error":"CANNOT_PUBLISH"}`

	gomock.InOrder(
		registrar.EXPECT().CreateRegistration(gomock.Any(), gomock.Any(), gomock.Any()).Return(unpublished),
		publisher.EXPECT().CommitEventRecord(gomock.Any(), gomock.Any(), "", "gh-token").Return(contentWritten()),
	)

	res := o.Process(context.Background(), eveningSoundBath(), testCreds)

	assert.Equal(t, event.OutcomePartial, res.Outcome)
	assert.Equal(t, http.StatusMultiStatus, res.ResponseCode)
	assert.True(t, res.Registration.Success)
	assert.False(t, res.Registration.Published)
	assert.Equal(t, eventbriteURL, res.Registration.ResourceURL, "partial resource is still reported")
}

func TestProcess_ContentRunsAfterRegistrationFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     *event.IntegrationResult
		wantOutcome event.Outcome
		wantCode    int
	}{
		{name: "content ok", content: contentWritten(), wantOutcome: event.OutcomePartial, wantCode: 207},
		{
			name:        "content failed",
			content:     &event.IntegrationResult{Message: "GitHub integration failed", ErrorDetail: "409"},
			wantOutcome: event.OutcomeFailure,
			wantCode:    500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o, registrar, publisher := newTestOrchestrator(t, true)
			registrar.EXPECT().CreateRegistration(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(registration(false, false, ""))
			publisher.EXPECT().CommitEventRecord(gomock.Any(), gomock.Any(), "", gomock.Any()).
				Return(tt.content)

			res := o.Process(context.Background(), eveningSoundBath(), testCreds)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantCode, res.ResponseCode)
			assert.Equal(t, event.StateComposed, res.State)
		})
	}
}

func TestProcess_RejectsBeforeAnyCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mutate     func(*event.Input)
		creds      event.Credentials
		wantStatus string
		wantCode   int
		wantMsg    string
	}{
		{
			name:       "missing calendar id",
			mutate:     func(in *event.Input) { in.CalendarEventID = "" },
			creds:      testCreds,
			wantStatus: event.StatusInvalidRequest,
			wantCode:   http.StatusBadRequest,
			wantMsg:    "googleCalendarEventId",
		},
		{
			name:       "missing end time with registration",
			mutate:     func(in *event.Input) { in.EndTime = "" },
			creds:      testCreds,
			wantStatus: event.StatusInvalidRequest,
			wantCode:   http.StatusBadRequest,
			wantMsg:    "endTime",
		},
		{
			name:       "missing registration token",
			mutate:     func(*event.Input) {},
			creds:      event.Credentials{ContentToken: "gh-token"},
			wantStatus: event.StatusConfigurationError,
			wantCode:   http.StatusInternalServerError,
			wantMsg:    "registration token",
		},
		{
			name:       "missing content token",
			mutate:     func(*event.Input) {},
			creds:      event.Credentials{RegistrationToken: "eb-token"},
			wantStatus: event.StatusConfigurationError,
			wantCode:   http.StatusInternalServerError,
			wantMsg:    "content token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// no EXPECT calls: any integration call fails the test
			o, _, _ := newTestOrchestrator(t, true)
			in := eveningSoundBath()
			tt.mutate(in)

			res := o.Process(context.Background(), in, tt.creds)

			assert.Equal(t, tt.wantStatus, res.OverallStatus)
			assert.Equal(t, tt.wantCode, res.ResponseCode)
			assert.Equal(t, event.StateCriticalFailure, res.State)
			assert.Contains(t, res.Message, tt.wantMsg)
			assert.Error(t, res.Err)
			assert.Nil(t, res.Registration)
			assert.Nil(t, res.Content)
		})
	}
}

func TestProcess_NilInput(t *testing.T) {
	t.Parallel()

	o, _, _ := newTestOrchestrator(t, true)
	res := o.Process(context.Background(), nil, testCreds)
	assert.Equal(t, http.StatusBadRequest, res.ResponseCode)
}

func TestProcess_ContentOnly(t *testing.T) {
	t.Parallel()

	o, _, publisher := newTestOrchestrator(t, false)
	assert.False(t, o.RegistrationEnabled())

	in := eveningSoundBath()
	in.EndTime = ""
	publisher.EXPECT().CommitEventRecord(gomock.Any(), in, "", "gh-token").Return(contentWritten())

	res := o.Process(context.Background(), in, event.Credentials{ContentToken: "gh-token"})

	assert.Equal(t, event.OutcomeSuccess, res.Outcome)
	assert.Equal(t, http.StatusOK, res.ResponseCode)
	assert.Nil(t, res.Registration)
}

func TestProcess_PanicIsCriticalFailure(t *testing.T) {
	t.Parallel()

	o, registrar, publisher := newTestOrchestrator(t, true)
	registrar.EXPECT().CreateRegistration(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(registration(true, true, eventbriteURL))
	publisher.EXPECT().CommitEventRecord(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *event.Input, string, string) *event.IntegrationResult {
			panic("connection reset by peer")
		})

	var res *event.OrchestrationResult
	require.NotPanics(t, func() {
		res = o.Process(context.Background(), eveningSoundBath(), testCreds)
	})

	assert.Equal(t, event.StatusCriticalFailure, res.OverallStatus)
	assert.Equal(t, http.StatusInternalServerError, res.ResponseCode)
	assert.Equal(t, event.StateCriticalFailure, res.State)
	assert.Contains(t, res.Message, "connection reset by peer")
	assert.Contains(t, res.Err.Error(), "content_in_flight")
	require.NotNil(t, res.Registration, "results obtained before the panic are kept")
	assert.True(t, res.Registration.Published)
	assert.Nil(t, res.Content)
}

func TestProcess_NilIntegrationResults(t *testing.T) {
	t.Parallel()

	o, registrar, publisher := newTestOrchestrator(t, true)
	registrar.EXPECT().CreateRegistration(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	publisher.EXPECT().CommitEventRecord(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(nil)

	res := o.Process(context.Background(), eveningSoundBath(), testCreds)

	assert.Equal(t, event.OutcomeFailure, res.Outcome)
	require.NotNil(t, res.Registration)
	require.NotNil(t, res.Content)
	assert.False(t, res.Content.Success)
}

func TestProcessPayload(t *testing.T) {
	t.Parallel()

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		o, _, _ := newTestOrchestrator(t, true)

		res := o.ProcessPayload(context.Background(), strings.NewReader(`{"title":`), testCreds)

		assert.Equal(t, event.StatusInvalidRequest, res.OverallStatus)
		assert.Equal(t, http.StatusBadRequest, res.ResponseCode)
		assert.Equal(t, "run-1", res.RunID)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		o, _, _ := newTestOrchestrator(t, true)

		body := http.MaxBytesReader(nil, io.NopCloser(strings.NewReader(strings.Repeat(" ", 64))), 8)
		res := o.ProcessPayload(context.Background(), body, testCreds)

		assert.Equal(t, event.StatusInvalidRequest, res.OverallStatus)
		assert.Equal(t, http.StatusRequestEntityTooLarge, res.ResponseCode)
		var tooLarge *http.MaxBytesError
		assert.ErrorAs(t, res.Err, &tooLarge)
	})

	t.Run("valid payload", func(t *testing.T) {
		t.Parallel()
		o, registrar, publisher := newTestOrchestrator(t, true)
		registrar.EXPECT().CreateRegistration(gomock.Any(), eveningSoundBath(), "eb-token").
			Return(registration(true, true, eventbriteURL))
		publisher.EXPECT().CommitEventRecord(gomock.Any(), eveningSoundBath(), eventbriteURL, "gh-token").
			Return(contentWritten())

		payload := `{"title":"Evening Sound Bath","startTime":"2025-06-01T18:00:00-10:00",
			"endTime":"2025-06-01T18:45:00-10:00","googleCalendarEventId":"abc123"}`
		res := o.ProcessPayload(context.Background(), strings.NewReader(payload), testCreds)

		assert.Equal(t, http.StatusOK, res.ResponseCode)
	})
}
