// Package task provides a minimal in-process executor for retryable units
// of work. The contract it offers callers is deliberately small: a
// callable job, a distinguished retryable error signal, and a maximum
// attempt count. The executor owns scheduling and backoff timing.
package task

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// retryableError marks an error as eligible for re-execution.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable wraps err so the executor schedules another attempt. A nil
// err returns nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err carries the retryable signal.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Job is one unit of work. Run is invoked up to MaxAttempts times; only
// errors wrapped with Retryable trigger another attempt. OnExhausted, if
// set, fires once after the final failure, retryable or not.
type Job struct {
	Name        string
	MaxAttempts int
	BaseDelay   time.Duration
	Run         func(ctx context.Context) error
	OnExhausted func(ctx context.Context, attempts int, err error)
}

// Executor runs submitted jobs asynchronously with exponential delay
// between retryable attempts.
type Executor struct {
	logger *log.Helper

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
	done    chan struct{}
}

// NewExecutor creates an executor. The returned cleanup stops it and
// waits for in-flight jobs.
func NewExecutor(logger log.Logger) (*Executor, func()) {
	e := &Executor{
		logger: log.NewHelper(logger),
		done:   make(chan struct{}),
	}
	return e, e.Stop
}

// Submit schedules the job for asynchronous execution. Submissions after
// Stop are rejected.
func (e *Executor) Submit(ctx context.Context, job *Job) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return errors.New("executor stopped")
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.run(ctx, job)
	}()
	return nil
}

// Stop rejects further submissions and waits for running jobs to finish.
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.done)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Executor) run(ctx context.Context, job *Job) {
	maxAttempts := job.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := job.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = job.Run(ctx)
		if lastErr == nil {
			return
		}

		if !IsRetryable(lastErr) {
			e.logger.Errorw("msg", "job failed",
				"job", job.Name,
				"attempt", attempt,
				"error", lastErr.Error())
			if job.OnExhausted != nil {
				job.OnExhausted(ctx, attempt, lastErr)
			}
			return
		}

		if attempt == maxAttempts {
			break
		}

		delay := backoffDelay(baseDelay, attempt)
		e.logger.Warnw("msg", "job attempt failed, retrying",
			"job", job.Name,
			"attempt", attempt,
			"delay", delay.String(),
			"error", lastErr.Error())

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			e.reportExhausted(ctx, job, attempt, lastErr)
			return
		case <-e.done:
			return
		case <-time.After(delay):
		}
	}

	e.logger.Errorw("msg", "job exhausted all attempts",
		"job", job.Name,
		"attempts", maxAttempts,
		"error", lastErr.Error())
	e.reportExhausted(ctx, job, maxAttempts, lastErr)
}

func (e *Executor) reportExhausted(ctx context.Context, job *Job, attempts int, err error) {
	if job.OnExhausted != nil {
		job.OnExhausted(ctx, attempts, err)
	}
}

// backoffDelay doubles the base delay per attempt with up to 25% jitter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay)/4 + 1))
	}
	return delay
}
