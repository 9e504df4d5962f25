package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Service: "identity-service", Attempts: 3, Err: cause}

	assert.True(t, IsTransport(err))
	assert.True(t, IsTransport(fmt.Errorf("wrapped: %w", err)))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "identity-service")
	assert.Contains(t, err.Error(), "3 attempt")
}

func TestGatewayError(t *testing.T) {
	err := &GatewayError{Service: "event-gateway", StatusCode: 503, Body: "overloaded"}

	ge, ok := IsGateway(fmt.Errorf("publish failed: %w", err))
	assert.True(t, ok)
	assert.Equal(t, 503, ge.StatusCode)

	_, ok = IsGateway(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsTransport(err))
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("EVENT_GATEWAY_URL is not configured: %w", ErrMissingConfiguration)
	assert.ErrorIs(t, wrapped, ErrMissingConfiguration)
	assert.NotErrorIs(t, wrapped, ErrCircuitOpen)
	assert.NotErrorIs(t, ErrServiceUnavailable, ErrCircuitOpen)
}
