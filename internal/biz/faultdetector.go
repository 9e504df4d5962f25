package biz

import (
	"sync"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// circuit holds the mutable breaker state for one target service. All
// transitions happen under mu; callers never touch the fields directly.
type circuit struct {
	mu            sync.Mutex
	status        model.CircuitStatus
	failureCount  int
	successCount  int
	windowStart   time.Time
	openedAt      time.Time
	probeInFlight bool
}

// FaultDetector tracks recent failure history per target service and
// decides whether an outbound call should proceed. One circuit exists per
// service key, created lazily and kept for the process lifetime.
//
// Counters use a fixed window: when timeWindow elapses the counts reset to
// zero and the window restarts. This matches the configuration knobs the
// service has always exposed; a sliding window would give stricter burst
// protection at the cost of more bookkeeping.
type FaultDetector struct {
	volumeThreshold       int
	errorThresholdPercent float64
	timeWindow            time.Duration
	sleepWindow           time.Duration

	now    func() time.Time
	logger *log.Helper

	mu       sync.Mutex
	circuits map[string]*circuit
}

// NewFaultDetector creates a fault detector from configuration. Instances
// are independent; tests can build isolated detectors with their own clock.
func NewFaultDetector(c *conf.Resilience, logger log.Logger) *FaultDetector {
	fd := &FaultDetector{
		volumeThreshold:       10,
		errorThresholdPercent: 50,
		timeWindow:            60 * time.Second,
		sleepWindow:           60 * time.Second,
		now:                   time.Now,
		logger:                log.NewHelper(logger),
		circuits:              make(map[string]*circuit),
	}
	if c != nil && c.Circuit != nil {
		if c.Circuit.VolumeThreshold > 0 {
			fd.volumeThreshold = c.Circuit.VolumeThreshold
		}
		if c.Circuit.ErrorThresholdPercent > 0 {
			fd.errorThresholdPercent = c.Circuit.ErrorThresholdPercent
		}
		if d := c.Circuit.TimeWindow.AsDuration(); d > 0 {
			fd.timeWindow = d
		}
		if d := c.Circuit.SleepWindow.AsDuration(); d > 0 {
			fd.sleepWindow = d
		}
	}
	return fd
}

// WithClock replaces the detector's clock. Intended for tests.
func (fd *FaultDetector) WithClock(now func() time.Time) *FaultDetector {
	fd.now = now
	return fd
}

// circuitFor returns the circuit for key, creating it on first use.
func (fd *FaultDetector) circuitFor(key string) *circuit {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	c, ok := fd.circuits[key]
	if !ok {
		c = &circuit{
			status:      model.CircuitClosed,
			windowStart: fd.now(),
		}
		fd.circuits[key] = c
	}
	return c
}

// Allow reports whether a call to the keyed service may proceed. In the
// open state it denies until the sleep window elapses, then lets exactly
// one probe through; further callers are denied until the probe outcome is
// recorded.
func (fd *FaultDetector) Allow(key string) bool {
	c := fd.circuitFor(key)
	now := fd.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case model.CircuitClosed:
		fd.rollWindowLocked(c, now)
		if fd.shouldTripLocked(c) {
			c.status = model.CircuitOpen
			c.openedAt = now
			fd.logger.Warnw("msg", "circuit opened",
				"service", key,
				"failures", c.failureCount,
				"successes", c.successCount)
			return false
		}
		return true

	case model.CircuitOpen:
		if now.Sub(c.openedAt) >= fd.sleepWindow {
			c.status = model.CircuitHalfOpen
			c.probeInFlight = true
			fd.logger.Infow("msg", "circuit half-open, probing", "service", key)
			return true
		}
		return false

	case model.CircuitHalfOpen:
		if c.probeInFlight {
			return false
		}
		c.probeInFlight = true
		return true

	default:
		return false
	}
}

// Record feeds a call outcome back into the keyed circuit. A half-open
// probe success closes the circuit and resets the counters; a probe
// failure reopens it and restarts the sleep window.
func (fd *FaultDetector) Record(key string, success bool) {
	c := fd.circuitFor(key)
	now := fd.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == model.CircuitHalfOpen {
		c.probeInFlight = false
		if success {
			c.status = model.CircuitClosed
			c.failureCount = 0
			c.successCount = 0
			c.windowStart = now
			fd.logger.Infow("msg", "circuit closed after successful probe", "service", key)
		} else {
			c.status = model.CircuitOpen
			c.openedAt = now
			fd.logger.Warnw("msg", "circuit reopened after failed probe", "service", key)
		}
		return
	}

	fd.rollWindowLocked(c, now)
	if success {
		c.successCount++
	} else {
		c.failureCount++
	}
}

// State returns a snapshot of the keyed circuit for observability.
func (fd *FaultDetector) State(key string) model.CircuitState {
	c := fd.circuitFor(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	return model.CircuitState{
		Status:       c.status,
		FailureCount: c.failureCount,
		SuccessCount: c.successCount,
		WindowStart:  c.windowStart,
		OpenedAt:     c.openedAt,
	}
}

// rollWindowLocked resets the counters when the fixed window has elapsed.
func (fd *FaultDetector) rollWindowLocked(c *circuit, now time.Time) {
	if now.Sub(c.windowStart) >= fd.timeWindow {
		c.failureCount = 0
		c.successCount = 0
		c.windowStart = now
	}
}

// shouldTripLocked applies the volume and error-rate thresholds to the
// current window.
func (fd *FaultDetector) shouldTripLocked(c *circuit) bool {
	if c.failureCount < fd.volumeThreshold {
		return false
	}
	total := c.failureCount + c.successCount
	if total == 0 {
		return false
	}
	rate := float64(c.failureCount) / float64(total) * 100
	return rate >= fd.errorThresholdPercent
}
