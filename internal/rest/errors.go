package rest

import (
	"fmt"
	"time"
)

// APIError is a non-retryable 4xx response (other than 429): validation,
// auth, not-found. It surfaces on the first attempt with no further network
// calls.
type APIError struct {
	Status  int
	Code    int
	Message string
	Raw     []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status %d, code %d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// RateLimitError surfaces a 429 only when retries are disabled or the
// caller's deadline expired while waiting out the limit.
type RateLimitError struct {
	RetryAfter time.Duration
	Global     bool
	Bucket     string
}

func (e *RateLimitError) Error() string {
	scope := "bucket"
	if e.Global {
		scope = "global"
	}
	return fmt.Sprintf("rate limited (%s scope), retry after %s", scope, e.RetryAfter)
}

// ServerError is a 5xx that survived the retry budget.
type ServerError struct {
	Status   int
	Attempts int
	Raw      []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d after %d attempt(s)", e.Status, e.Attempts)
}

// TransportError is a connection or timeout failure that survived the retry
// budget. It wraps the last underlying cause.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that could not be interpreted as the
// service's contract requires, e.g. a success whose rate limit headers are
// unparseable. The associated bucket degrades to unknown; the call itself
// does not fail for this reason alone.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
