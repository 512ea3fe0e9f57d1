package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned to the caller before anything else happens.
	ErrEmptyQuery = errors.New("query is empty")
	ErrEmptyImage = errors.New("label image is empty")

	// ErrPoolExhausted means no credential is configured.
	ErrPoolExhausted = errors.New("no api credential configured")

	// ErrNetworkFailure covers transport errors and non-success replies from the reasoning service.
	ErrNetworkFailure = errors.New("reasoning service request failed")

	// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrNetworkFailure)

	ErrEmptyResponse   = errors.New("reasoning service returned no text")
	ErrSchemaViolation = errors.New("response does not match the analysis schema")

	ErrNotFound = errors.New("analysis not found")
)

// Cause names the failure class of err for logs, metrics and audit rows.
func Cause(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrNetworkFailure):
		return "network_failure"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	default:
		return "unknown"
	}
}
