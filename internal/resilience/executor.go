package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"
)

// Operation is a caller-supplied blocking operation, typically a database
// call. It must honor context cancellation for timeouts to interrupt it.
type Operation func(ctx context.Context) error

// Executor composes a circuit breaker gate check, a retry loop, and a time
// limiter around caller-supplied operations. Concurrency is bounded by a
// weighted semaphore so saturated executions queue instead of spawning
// unbounded work against the protected resource.
//
// Composition order, outer to inner: time limiter, breaker gate, retry loop,
// operation. Each logical execution reports exactly one outcome to the
// breaker regardless of how many retry attempts ran.
type Executor struct {
	cfg     Config
	breaker *Breaker
	sem     *semaphore.Weighted
	now     func() time.Time
}

// NewExecutor creates an Executor with its own circuit breaker.
func NewExecutor(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Executor{
		cfg:     cfg,
		breaker: NewBreaker(cfg),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls)),
		now:     time.Now,
	}, nil
}

// Breaker exposes the executor's circuit breaker for health reporting.
func (e *Executor) Breaker() *Breaker {
	return e.breaker
}

// Execute runs op under the configured resilience policy. The result is
// exactly one of: nil, ErrCallNotPermitted, ErrTimeout, *RetryExhaustedError,
// or the operation's own non-retryable error.
func (e *Executor) Execute(ctx context.Context, op Operation) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OperationTimeout)
	defer cancel()

	// Bounded worker admission. Waiting here is the backpressure valve on
	// the resilience side; the resource is never contacted, so nothing is
	// recorded if the wait is cut short.
	if err := e.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	}
	defer e.sem.Release(1)

	// Fail fast while the breaker is open. Not recorded as a new failure;
	// the breaker already knows the dependency is unhealthy.
	if err := e.breaker.Acquire(); err != nil {
		return err
	}

	start := e.now()
	var attempts int
	var attemptDuration time.Duration

	done := make(chan error, 1)
	go func() {
		backoff := retry.WithMaxRetries(uint64(e.cfg.MaxRetryAttempts-1), retry.NewConstant(e.cfg.RetryBackoff))
		done <- retry.Do(ctx, backoff, func(ctx context.Context) error {
			attempts++
			attemptStart := e.now()
			err := op(ctx)
			attemptDuration = e.now().Sub(attemptStart)
			if err == nil {
				return nil
			}
			if IsNonRetryable(err) {
				// Caller error: propagate on the first attempt without
				// consuming a retry.
				return err
			}
			return retry.RetryableError(err)
		})
	}()

	select {
	case <-ctx.Done():
		// The in-flight attempt is cancelled best-effort via ctx. Exactly
		// one timeout outcome, never a pending one. Caller cancellation says
		// nothing about the dependency and records nothing.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.breaker.record(false, e.now().Sub(start))
			return ErrTimeout
		}
		e.breaker.release()
		return ctx.Err()

	case err := <-done:
		if err == nil {
			e.breaker.record(true, attemptDuration)
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			e.breaker.record(false, e.now().Sub(start))
			return ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			e.breaker.release()
			return err
		}
		if IsNonRetryable(err) {
			// Excluded from breaker accounting: bad input, not a bad
			// dependency. The acquired slot is returned so a half-open
			// trial budget is not consumed.
			e.breaker.release()
			return unwrapNonRetryable(err)
		}
		e.breaker.record(false, attemptDuration)
		return &RetryExhaustedError{Attempts: attempts, Err: err}
	}
}

// Do runs op under exec's resilience policy and returns its value.
func Do[T any](ctx context.Context, exec *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := exec.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
