package event

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    string
		wantErr    string
		wantResult *Input
	}{
		{
			name: "full payload",
			payload: `{"title":"Sound Bath","startTime":"2025-07-04T18:00:00-10:00","endTime":"2025-07-04T19:30:00-10:00",
				"location":"Kakaako Park","description":"Bring a mat","googleCalendarEventId":"abc123","isAllDay":false}`,
			wantResult: &Input{
				Title:           "Sound Bath",
				StartTime:       "2025-07-04T18:00:00-10:00",
				EndTime:         "2025-07-04T19:30:00-10:00",
				Location:        "Kakaako Park",
				Description:     "Bring a mat",
				CalendarEventID: "abc123",
			},
		},
		{
			name:       "nulls are accepted",
			payload:    `{"title":"Yoga","startTime":"2025-07-04","googleCalendarEventId":"x","location":null,"isAllDay":null}`,
			wantResult: &Input{Title: "Yoga", StartTime: "2025-07-04", CalendarEventID: "x"},
		},
		{
			name:       "unknown fields are ignored",
			payload:    `{"title":"Yoga","startTime":"2025-07-04","googleCalendarEventId":"x","color":"blue"}`,
			wantResult: &Input{Title: "Yoga", StartTime: "2025-07-04", CalendarEventID: "x"},
		},
		{name: "malformed JSON", payload: `{"title":`, wantErr: "invalid JSON payload"},
		{name: "not an object", payload: `["title"]`, wantErr: "does not match schema"},
		{name: "wrong field type", payload: `{"title":42}`, wantErr: "does not match schema"},
		{name: "boolean as string", payload: `{"isAllDay":"yes"}`, wantErr: "does not match schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode(strings.NewReader(tt.payload))
			if tt.wantErr != "" {
				require.Error(t, err)
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, got)
		})
	}
}

func TestInput_Validate(t *testing.T) {
	t.Parallel()

	valid := Input{
		Title:           "Sound Bath",
		StartTime:       "2025-07-04T18:00:00-10:00",
		EndTime:         "2025-07-04T19:30:00-10:00",
		CalendarEventID: "abc123",
	}

	tests := []struct {
		name        string
		mutate      func(*Input)
		requireEnd  bool
		wantMissing []string
		wantInvalid int
	}{
		{name: "valid", mutate: func(*Input) {}, requireEnd: true},
		{
			name:        "missing calendar id",
			mutate:      func(in *Input) { in.CalendarEventID = "" },
			wantMissing: []string{FieldCalendarEventID},
		},
		{
			name:        "blank title counts as missing",
			mutate:      func(in *Input) { in.Title = "   " },
			wantMissing: []string{FieldTitle},
		},
		{
			name:        "every missing field is reported",
			mutate:      func(in *Input) { *in = Input{} },
			requireEnd:  true,
			wantMissing: []string{FieldTitle, FieldStartTime, FieldCalendarEventID, FieldEndTime},
		},
		{
			name:       "end time optional without registration",
			mutate:     func(in *Input) { in.EndTime = "" },
			requireEnd: false,
		},
		{
			name:        "end time required with registration",
			mutate:      func(in *Input) { in.EndTime = "" },
			requireEnd:  true,
			wantMissing: []string{FieldEndTime},
		},
		{
			name:        "unparseable start",
			mutate:      func(in *Input) { in.StartTime = "next tuesday" },
			wantInvalid: 1,
		},
		{
			name:        "unparseable end",
			mutate:      func(in *Input) { in.EndTime = "07/04/2025" },
			wantInvalid: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := valid
			tt.mutate(&in)
			err := in.Validate(tt.requireEnd)

			if tt.wantMissing == nil && tt.wantInvalid == 0 {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMissing, verr.Missing)
			assert.Len(t, verr.Invalid, tt.wantInvalid)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	honolulu, err := time.LoadLocation("Pacific/Honolulu")
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "RFC 3339 keeps its offset",
			value: "2025-07-04T18:00:00-10:00",
			want:  time.Date(2025, 7, 5, 4, 0, 0, 0, time.UTC),
		},
		{
			name:  "UTC with fraction",
			value: "2025-07-05T04:00:00.000Z",
			want:  time.Date(2025, 7, 5, 4, 0, 0, 0, time.UTC),
		},
		{
			name:  "local timestamp uses location",
			value: "2025-07-04T18:00:00",
			want:  time.Date(2025, 7, 4, 18, 0, 0, 0, honolulu),
		},
		{
			name:  "date only is midnight in location",
			value: "2025-07-04",
			want:  time.Date(2025, 7, 4, 0, 0, 0, 0, honolulu),
		},
		{name: "empty", value: " ", wantErr: true},
		{name: "garbage", value: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTimestamp(tt.value, honolulu)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCredentials_Missing(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Credentials{RegistrationToken: "a", ContentToken: "b"}.Missing(true))
	assert.Empty(t, Credentials{ContentToken: "b"}.Missing(false))
	assert.Equal(t, []string{"registration token"}, Credentials{ContentToken: "b"}.Missing(true))
	assert.Equal(t, []string{"registration token", "content token"}, Credentials{}.Missing(true))
	assert.Equal(t, []string{"content token"}, Credentials{RegistrationToken: "a", ContentToken: " "}.Missing(false))
}
