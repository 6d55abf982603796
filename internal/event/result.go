package event

// IntegrationResult is the outcome of one integration against one platform.
type IntegrationResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ResourceID  string `json:"resourceId,omitempty"`
	ResourceURL string `json:"resourceUrl,omitempty"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// RegistrationResult extends IntegrationResult with the platform-reported publish flag.
// A registration can be created (Success) and still not be publicly listed (Published).
type RegistrationResult struct {
	IntegrationResult
	Published bool `json:"published"`
}

// Listed reports whether the registration exists and the platform reported it as published.
func (r *RegistrationResult) Listed() bool {
	return r != nil && r.Success && r.Published
}

// Outcome is the aggregate result of an orchestration whose integrations both ran.
type Outcome string

const (
	// OutcomeSuccess means the registration is published and the content record was written
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means exactly one of the two integrations succeeded
	OutcomePartial Outcome = "partial"
	// OutcomeFailure means neither integration succeeded
	OutcomeFailure Outcome = "failure"
)

// State is a step of the per-invocation orchestration state machine.
type State string

const (
	StateStart                State = "start"
	StateValidating           State = "validating"
	StateRegistrationInFlight State = "registration_in_flight"
	StateContentInFlight      State = "content_in_flight"
	// StateComposed is terminal: both integrations ran and the outcome was folded
	StateComposed State = "composed"
	// StateCriticalFailure is terminal: the orchestration itself broke
	StateCriticalFailure State = "critical_failure"
)

// Overall status values reported to callers when no outcome could be composed.
const (
	StatusInvalidRequest     = "invalid_request"
	StatusConfigurationError = "configuration_error"
	StatusCriticalFailure    = "critical_failure"
)

// OrchestrationResult is the combined report of one orchestration.
// Registration is nil when registration is disabled or was never attempted.
type OrchestrationResult struct {
	RunID         string              `json:"runId"`
	OverallStatus string              `json:"overallStatus"`
	Registration  *RegistrationResult `json:"registration"`
	Content       *IntegrationResult  `json:"content"`
	Message       string              `json:"message,omitempty"`

	Outcome      Outcome `json:"-"`
	State        State   `json:"-"`
	ResponseCode int     `json:"-"`
	Err          error   `json:"-"`
}
