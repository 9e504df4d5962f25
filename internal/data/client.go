package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/model"
	pkgerrors "github.com/SarradaHub/pickup-game-manager/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// EndpointResolver resolves a named service to a callable endpoint. A nil
// result means the service is unavailable right now.
type EndpointResolver interface {
	Discover(ctx context.Context, serviceName string) *model.ServiceEndpoint
}

// CircuitGate is the fault-detector surface the client needs: permission
// to call, and a place to report the outcome.
type CircuitGate interface {
	Allow(key string) bool
	Record(key string, success bool)
}

// Response is the reduced view of an upstream reply handed to callers.
type Response struct {
	StatusCode int
	Body       []byte
}

// Successful reports whether the status is in the 2xx range.
func (r *Response) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ResilientClient performs outbound calls to named services with service
// discovery, circuit breaking, and retry composed behind one primitive.
// Callers see values, not transport details.
type ResilientClient struct {
	resolver EndpointResolver
	circuit  CircuitGate
	http     *http.Client

	maxAttempts   int
	baseInterval  time.Duration
	backoffFactor float64
	jitterFactor  float64
	retryable     map[int]bool

	logger *log.Helper
}

// NewResilientClient builds the call primitive from the resilience
// configuration. Connect and read timeouts are always set; there is no
// unbounded wait on any path.
func NewResilientClient(c *conf.Resilience, resolver EndpointResolver, circuit CircuitGate, logger log.Logger) *ResilientClient {
	connectTimeout := 2 * time.Second
	readTimeout := 5 * time.Second
	if c != nil && c.Timeout != nil {
		if d := c.Timeout.Connect.AsDuration(); d > 0 {
			connectTimeout = d
		}
		if d := c.Timeout.Read.AsDuration(); d > 0 {
			readTimeout = d
		}
	}

	rc := &ResilientClient{
		resolver: resolver,
		circuit:  circuit,
		http: &http.Client{
			Timeout: readTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
				MaxIdleConnsPerHost: 10,
			},
		},
		maxAttempts:   3,
		baseInterval:  50 * time.Millisecond,
		backoffFactor: 2.0,
		jitterFactor:  0.5,
		retryable:     map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true},
		logger:        log.NewHelper(logger),
	}

	if c != nil && c.Retry != nil {
		if c.Retry.MaxAttempts > 0 {
			rc.maxAttempts = c.Retry.MaxAttempts
		}
		if d := c.Retry.BaseInterval.AsDuration(); d > 0 {
			rc.baseInterval = d
		}
		if c.Retry.BackoffFactor > 0 {
			rc.backoffFactor = c.Retry.BackoffFactor
		}
		if c.Retry.JitterFactor >= 0 {
			rc.jitterFactor = c.Retry.JitterFactor
		}
		if len(c.Retry.RetryableStatusCodes) > 0 {
			rc.retryable = make(map[int]bool, len(c.Retry.RetryableStatusCodes))
			for _, code := range c.Retry.RetryableStatusCodes {
				rc.retryable[code] = true
			}
		}
	}

	return rc
}

// Call performs an HTTP request against the named service. The sequence
// is: resolve the endpoint (fail fast when unresolvable), consult the
// circuit (fail fast with no I/O when open), then execute with retries on
// transport failures and retryable statuses. At most maxAttempts round
// trips happen per logical call, and no retry fires once the circuit
// reports open between attempts.
func (c *ResilientClient) Call(ctx context.Context, serviceName, method, path string, body any, headers map[string]string) (*Response, error) {
	endpoint := c.resolver.Discover(ctx, serviceName)
	if endpoint == nil {
		return nil, pkgerrors.ErrServiceUnavailable
	}

	if !c.circuit.Allow(serviceName) {
		return nil, pkgerrors.ErrCircuitOpen
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = encoded
	}

	url := endpoint.BaseURL() + path

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoffDelay(attempt - 1)):
			}
			// A circuit that opened mid-sequence stops the retries.
			if !c.circuit.Allow(serviceName) {
				return nil, pkgerrors.ErrCircuitOpen
			}
		}

		resp, err := c.doRequest(ctx, method, url, payload, headers)
		if err != nil {
			c.circuit.Record(serviceName, false)
			lastErr = err
			c.logger.Warnw("msg", "outbound call failed",
				"service", serviceName,
				"attempt", attempt,
				"error", err.Error())
			continue
		}

		if c.retryable[resp.StatusCode] && attempt < c.maxAttempts {
			c.circuit.Record(serviceName, false)
			lastErr = &pkgerrors.GatewayError{
				Service:    serviceName,
				StatusCode: resp.StatusCode,
				Body:       string(resp.Body),
			}
			continue
		}

		// Final answer: 5xx and configured codes count as circuit
		// failures, everything else (including 4xx business answers)
		// as success.
		c.circuit.Record(serviceName, resp.StatusCode < 500 && !c.retryable[resp.StatusCode])
		return resp, nil
	}

	return nil, &pkgerrors.TransportError{
		Service:  serviceName,
		Attempts: c.maxAttempts,
		Err:      lastErr,
	}
}

// doRequest executes one HTTP round trip.
func (c *ResilientClient) doRequest(ctx context.Context, method, url string, payload []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// backoffDelay computes the exponential delay before the given retry,
// randomized by the jitter factor.
func (c *ResilientClient) backoffDelay(retry int) time.Duration {
	delay := float64(c.baseInterval) * math.Pow(c.backoffFactor, float64(retry-1))
	if c.jitterFactor > 0 {
		delay += delay * c.jitterFactor * rand.Float64()
	}
	return time.Duration(delay)
}
