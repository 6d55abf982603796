package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/mindfulina/eventsync/internal/api/common"
	"github.com/mindfulina/eventsync/internal/event"
)

type eventsHandler struct {
	processor    Processor
	creds        CredentialSource
	maxBodyBytes int64
}

// ServeHTTP handles POST /events. The shared secret is checked before the body
// is read, so an unauthenticated caller never triggers an outbound call.
func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	secret, err := h.creds.WebhookSecret()
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to resolve webhook secret", "error", err)
		common.WriteJSONResponse(w, &event.OrchestrationResult{
			OverallStatus: event.StatusConfigurationError,
			Message:       "configuration error: webhook secret could not be resolved",
		}, http.StatusInternalServerError)
		return
	}
	if secret != "" {
		got := r.Header.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			slog.WarnContext(r.Context(), "Rejected webhook with invalid shared secret",
				"remote_addr", r.RemoteAddr)
			common.WriteErrorResponse(w, "invalid webhook secret", http.StatusUnauthorized)
			return
		}
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	res := h.processor.ProcessPayload(r.Context(), body, h.creds.Credentials())

	code := res.ResponseCode
	if code == 0 {
		code = http.StatusInternalServerError
	}
	common.WriteJSONResponse(w, res, code)
}
