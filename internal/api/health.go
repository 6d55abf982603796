package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindfulina/eventsync/internal/api/common"
	"github.com/mindfulina/eventsync/internal/versions"
)

func healthRoutes(r chi.Router, processor Processor, creds CredentialSource) {
	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(processor, creds))
	r.Get("/version", versionHandler)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once every credential the enabled
// integrations need can be resolved, and a configured webhook secret can be read.
func readinessHandler(processor Processor, creds CredentialSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		missing := creds.Credentials().Missing(processor.RegistrationEnabled())
		if _, err := creds.WebhookSecret(); err != nil {
			missing = append(missing, "webhook secret")
		}
		if len(missing) > 0 {
			common.WriteJSONResponse(w, ReadinessResponse{Status: "not_ready", Missing: missing},
				http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
