package resilience

import (
	"fmt"
	"time"
)

// Config holds the circuit breaker, retry, and timeout settings for an
// Executor. It is a snapshot: supplied at construction and immutable
// afterwards.
type Config struct {
	// FailureRateThreshold is the failure percentage (0-100] at or above
	// which the breaker opens, once MinimumNumberOfCalls outcomes are in
	// the window.
	FailureRateThreshold float64

	// SlidingWindowSize is the number of most recent call outcomes the
	// breaker evaluates.
	SlidingWindowSize int

	// MinimumNumberOfCalls is the number of recorded outcomes required
	// before the failure rate is evaluated at all.
	MinimumNumberOfCalls int

	// WaitDurationInOpenState is how long the breaker stays open before
	// permitting half-open trial calls.
	WaitDurationInOpenState time.Duration

	// PermittedCallsInHalfOpen is the trial call budget while half-open.
	PermittedCallsInHalfOpen int

	// SlowCallDurationThreshold marks a call as slow when its duration
	// meets or exceeds it, even if the call succeeds.
	SlowCallDurationThreshold time.Duration

	// SlowCallRateThreshold is the slow-call percentage (0-100] at or above
	// which the breaker opens, evaluated like the failure rate.
	SlowCallRateThreshold float64

	// MaxRetryAttempts is the total number of invocations of the operation,
	// including the first.
	MaxRetryAttempts int

	// RetryBackoff is the constant delay between retry attempts.
	RetryBackoff time.Duration

	// OperationTimeout bounds the whole logical call, retries included.
	OperationTimeout time.Duration

	// MaxConcurrentCalls bounds how many executions may run at once.
	// Additional executions wait, honoring the caller's context.
	MaxConcurrentCalls int
}

// DefaultConfig returns a Config with conservative production defaults.
func DefaultConfig() Config {
	return Config{
		FailureRateThreshold:      50,
		SlidingWindowSize:         10,
		MinimumNumberOfCalls:      5,
		WaitDurationInOpenState:   60 * time.Second,
		PermittedCallsInHalfOpen:  3,
		SlowCallDurationThreshold: 2 * time.Second,
		SlowCallRateThreshold:     100,
		MaxRetryAttempts:          3,
		RetryBackoff:              100 * time.Millisecond,
		OperationTimeout:          5 * time.Second,
		MaxConcurrentCalls:        16,
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 100 {
		return fmt.Errorf("failure rate threshold must be in (0, 100], got %v", c.FailureRateThreshold)
	}
	if c.SlowCallRateThreshold <= 0 || c.SlowCallRateThreshold > 100 {
		return fmt.Errorf("slow call rate threshold must be in (0, 100], got %v", c.SlowCallRateThreshold)
	}
	if c.SlidingWindowSize <= 0 {
		return fmt.Errorf("sliding window size must be positive, got %d", c.SlidingWindowSize)
	}
	if c.MinimumNumberOfCalls <= 0 {
		return fmt.Errorf("minimum number of calls must be positive, got %d", c.MinimumNumberOfCalls)
	}
	if c.PermittedCallsInHalfOpen <= 0 {
		return fmt.Errorf("permitted calls in half-open must be positive, got %d", c.PermittedCallsInHalfOpen)
	}
	if c.WaitDurationInOpenState <= 0 {
		return fmt.Errorf("wait duration in open state must be positive, got %v", c.WaitDurationInOpenState)
	}
	if c.MaxRetryAttempts <= 0 {
		return fmt.Errorf("max retry attempts must be positive, got %d", c.MaxRetryAttempts)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got %v", c.OperationTimeout)
	}
	if c.MaxConcurrentCalls <= 0 {
		return fmt.Errorf("max concurrent calls must be positive, got %d", c.MaxConcurrentCalls)
	}
	return nil
}
