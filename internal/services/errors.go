package services

import "errors"

// Error taxonomy for the conversation pipeline. Handlers map these to HTTP
// status codes; the pipeline itself never retries and never treats any of
// them as fatal to the process.
var (
	// ErrStoreUnavailable means the underlying storage could not be reached
	// or the driver failed mid-operation.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrConstraintViolation means a write was malformed, e.g. an empty
	// required field. Checked before touching the store.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrGenerationUnavailable means the generation backend was unreachable
	// or replied with a non-success status.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrSubmissionInFlight means a session submission was rejected because
	// another one is still running. Submissions never interleave.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)
