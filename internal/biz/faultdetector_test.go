package biz

import (
	"sync"
	"testing"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

// fakeClock is a manually advanced clock for driving window and sleep
// transitions deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestDetector(t *testing.T) (*FaultDetector, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cfg := &conf.Resilience{
		Circuit: &conf.Resilience_Circuit{
			VolumeThreshold:       10,
			ErrorThresholdPercent: 50,
			TimeWindow:            durationpb.New(60 * time.Second),
			SleepWindow:           durationpb.New(60 * time.Second),
		},
	}
	fd := NewFaultDetector(cfg, log.NewStdLogger(testWriter{t})).WithClock(clock.Now)
	return fd, clock
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestFaultDetector_StaysClosedBelowVolumeThreshold(t *testing.T) {
	fd, _ := newTestDetector(t)

	for i := 0; i < 9; i++ {
		require.True(t, fd.Allow("identity-service"))
		fd.Record("identity-service", false)
	}

	assert.True(t, fd.Allow("identity-service"))
	assert.Equal(t, model.CircuitClosed, fd.State("identity-service").Status)
}

func TestFaultDetector_OpensAtThresholdAndRate(t *testing.T) {
	fd, _ := newTestDetector(t)

	for i := 0; i < 10; i++ {
		require.True(t, fd.Allow("identity-service"))
		fd.Record("identity-service", false)
	}

	// Tenth failure meets volume threshold at 100% error rate.
	assert.False(t, fd.Allow("identity-service"))
	assert.Equal(t, model.CircuitOpen, fd.State("identity-service").Status)

	// Still open: no further calls allowed, no probe before sleep window.
	assert.False(t, fd.Allow("identity-service"))
}

func TestFaultDetector_StaysClosedWhenErrorRateBelowThreshold(t *testing.T) {
	fd, _ := newTestDetector(t)

	// 10 failures but 15 successes: rate 40% < 50%.
	for i := 0; i < 15; i++ {
		fd.Record("identity-service", true)
	}
	for i := 0; i < 10; i++ {
		fd.Record("identity-service", false)
	}

	assert.True(t, fd.Allow("identity-service"))
	assert.Equal(t, model.CircuitClosed, fd.State("identity-service").Status)
}

func TestFaultDetector_HalfOpenSingleProbe(t *testing.T) {
	fd, clock := newTestDetector(t)

	for i := 0; i < 10; i++ {
		fd.Record("identity-service", false)
	}
	require.False(t, fd.Allow("identity-service"))

	clock.Advance(61 * time.Second)

	// Exactly one probe is allowed.
	assert.True(t, fd.Allow("identity-service"))
	assert.False(t, fd.Allow("identity-service"))
	assert.Equal(t, model.CircuitHalfOpen, fd.State("identity-service").Status)
}

func TestFaultDetector_ProbeSuccessClosesAndResets(t *testing.T) {
	fd, clock := newTestDetector(t)

	for i := 0; i < 10; i++ {
		fd.Record("identity-service", false)
	}
	require.False(t, fd.Allow("identity-service"))

	clock.Advance(61 * time.Second)
	require.True(t, fd.Allow("identity-service"))

	fd.Record("identity-service", true)

	state := fd.State("identity-service")
	assert.Equal(t, model.CircuitClosed, state.Status)
	assert.Equal(t, 0, state.FailureCount)
	assert.True(t, fd.Allow("identity-service"))
}

func TestFaultDetector_ProbeFailureReopensWithFreshSleepWindow(t *testing.T) {
	fd, clock := newTestDetector(t)

	for i := 0; i < 10; i++ {
		fd.Record("identity-service", false)
	}
	require.False(t, fd.Allow("identity-service"))

	clock.Advance(61 * time.Second)
	require.True(t, fd.Allow("identity-service"))

	fd.Record("identity-service", false)
	assert.Equal(t, model.CircuitOpen, fd.State("identity-service").Status)

	// The sleep window restarted at the probe failure, not the first open.
	clock.Advance(30 * time.Second)
	assert.False(t, fd.Allow("identity-service"))

	clock.Advance(31 * time.Second)
	assert.True(t, fd.Allow("identity-service"))
}

func TestFaultDetector_FixedWindowReset(t *testing.T) {
	fd, clock := newTestDetector(t)

	for i := 0; i < 9; i++ {
		fd.Record("identity-service", false)
	}

	// Window elapses; counters reset before the next failure lands.
	clock.Advance(61 * time.Second)
	fd.Record("identity-service", false)

	state := fd.State("identity-service")
	assert.Equal(t, 1, state.FailureCount)
	assert.True(t, fd.Allow("identity-service"))
}

func TestFaultDetector_KeysAreIndependent(t *testing.T) {
	fd, _ := newTestDetector(t)

	for i := 0; i < 10; i++ {
		fd.Record("identity-service", false)
	}
	require.False(t, fd.Allow("identity-service"))

	assert.True(t, fd.Allow("event-gateway"))
	assert.Equal(t, model.CircuitClosed, fd.State("event-gateway").Status)
}

func TestFaultDetector_ConcurrentAccess(t *testing.T) {
	fd, _ := newTestDetector(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if fd.Allow("identity-service") {
				fd.Record("identity-service", n%2 == 0)
			}
		}(i)
	}
	wg.Wait()

	state := fd.State("identity-service")
	assert.LessOrEqual(t, state.FailureCount+state.SuccessCount, 50)
}
