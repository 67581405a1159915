package factset

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a non-success response that is not covered by a
// more specific error type.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FactSet API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// AuthError means the credentials were rejected (401). Callers should
// stop retrying and surface the failure.
type AuthError struct {
	Endpoint string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("FactSet authentication failed for %s: check FDS_USERNAME and FDS_API_KEY", e.Endpoint)
}

// PermissionError means the subscription lacks access to an endpoint (403).
type PermissionError struct {
	Endpoint string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("FactSet access denied for %s: check your API subscription", e.Endpoint)
}

// NotFoundError means the requested identifier or endpoint has no data
// (404). For enrichment this is an expected outcome, not a failure.
type NotFoundError struct {
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("FactSet resource not found: %s", e.Endpoint)
}

// RateLimitError means the server asked for a wait longer than the
// configured ceiling, which usually signals an exhausted quota.
type RateLimitError struct {
	Endpoint   string
	RetryAfter time.Duration
	MaxDelay   time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("FactSet rate limit retry delay (%s) exceeds maximum allowed (%s) for %s: API quota likely exhausted",
		e.RetryAfter, e.MaxDelay, e.Endpoint)
}

// IsNotFound reports whether err is a missing-data response.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsCritical reports whether err is a failure of the whole provider
// session (bad credentials, missing entitlement, exhausted quota)
// rather than a problem with one request's data.
func IsCritical(err error) bool {
	var auth *AuthError
	var perm *PermissionError
	var rate *RateLimitError
	return errors.As(err, &auth) || errors.As(err, &perm) || errors.As(err, &rate)
}
