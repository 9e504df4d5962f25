package model

import "time"

// CircuitStatus is the circuit breaker position for one target service.
type CircuitStatus int

const (
	// CircuitClosed means calls flow normally.
	CircuitClosed CircuitStatus = iota
	// CircuitOpen means calls are rejected until the sleep window elapses.
	CircuitOpen
	// CircuitHalfOpen means a single probe call is allowed through.
	CircuitHalfOpen
)

// String returns the lowercase state name.
func (s CircuitStatus) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitState is a snapshot of one circuit's counters. Transitions happen
// only inside the fault detector; callers never mutate this directly.
type CircuitState struct {
	Status       CircuitStatus
	FailureCount int
	SuccessCount int
	WindowStart  time.Time
	OpenedAt     time.Time
}
