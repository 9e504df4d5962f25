// Package errors provides outbound-call error classification for the
// resilience layer. Failures are reduced to values so that retry and
// circuit bookkeeping stay precise and testable.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected unavailability conditions. Callers match
// these with errors.Is.
var (
	// ErrServiceUnavailable means no endpoint could be resolved for the
	// target service. Nothing was called.
	ErrServiceUnavailable = errors.New("service unavailable: no endpoint resolved")

	// ErrCircuitOpen means the circuit breaker rejected the call before
	// any network I/O was attempted.
	ErrCircuitOpen = errors.New("circuit open: call rejected without I/O")

	// ErrMissingConfiguration means a required endpoint or key is unset.
	// This is a configuration defect, not a transient fault; it drives
	// job-level backoff rather than call-level retry.
	ErrMissingConfiguration = errors.New("missing configuration")
)

// TransportError wraps a connection-level or timeout failure. Transport
// errors are retryable and count against the target's circuit.
type TransportError struct {
	Service  string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure calling %s after %d attempt(s): %v", e.Service, e.Attempts, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// GatewayError captures a non-2xx response from a remote gateway. The
// status and body are retained for diagnostics; whether the status is a
// circuit failure is decided by the caller's policy, not here.
type GatewayError struct {
	Service    string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.StatusCode, e.Body)
}

// MalformedResponseError means the remote answered but the body could not
// be decoded into the expected shape.
type MalformedResponseError struct {
	Service string
	Err     error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Service, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsGateway reports whether err is (or wraps) a GatewayError, returning it
// for status inspection.
func IsGateway(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}
