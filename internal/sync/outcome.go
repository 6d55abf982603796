package sync

import (
	"net/http"

	"github.com/mindfulina/eventsync/internal/event"
)

// RegistrationLink returns the URL to advertise in the content record. Only a
// registration that exists and is published is ever advertised.
func RegistrationLink(reg *event.RegistrationResult) string {
	if !reg.Listed() {
		return ""
	}
	return reg.ResourceURL
}

// Fold computes the aggregate outcome. A registration counts as succeeded only
// when it is published. With registration disabled the outcome depends on
// content alone.
func Fold(reg *event.RegistrationResult, content *event.IntegrationResult, registrationEnabled bool) event.Outcome {
	contentOK := content != nil && content.Success

	if !registrationEnabled {
		if contentOK {
			return event.OutcomeSuccess
		}
		return event.OutcomeFailure
	}

	switch regOK := reg.Listed(); {
	case regOK && contentOK:
		return event.OutcomeSuccess
	case regOK || contentOK:
		return event.OutcomePartial
	default:
		return event.OutcomeFailure
	}
}

// ResponseCode maps an outcome to the HTTP status reported to callers
func ResponseCode(o event.Outcome) int {
	switch o {
	case event.OutcomeSuccess:
		return http.StatusOK
	case event.OutcomePartial:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}
