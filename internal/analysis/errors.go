// Package analysis builds document analysis prompts and calls the external
// structured-completion service.
package analysis

import "errors"

// Error kinds returned by the analysis client. The orchestrator's terminal
// status policy branches on these, so transport faults, unparseable bodies,
// and schema-invalid results stay distinguishable.
var (
	// ErrServiceUnavailable marks transport failures, timeouts, non-2xx
	// responses, and an open circuit breaker.
	ErrServiceUnavailable = errors.New("analysis service unavailable")
	// ErrMalformedResponse marks a response whose content did not parse as
	// JSON.
	ErrMalformedResponse = errors.New("malformed analysis response")
	// ErrInvalidResult marks parsed JSON that fails schema validation, such
	// as a missing or out-of-range confidence.
	ErrInvalidResult = errors.New("analysis result failed validation")
	// ErrInvalidDocumentType marks a prompt request for an unrecognized
	// document type. This is a programmer error, never silently defaulted.
	ErrInvalidDocumentType = errors.New("invalid document type for analysis")
)
