package resilience

import (
	"errors"
	"fmt"
)

// Errors returned by Executor.Execute. Every execution resolves to exactly one
// of: nil, ErrCallNotPermitted, ErrTimeout, a *RetryExhaustedError, or the
// original non-retryable error.
var (
	// ErrCallNotPermitted is returned when the circuit breaker is open and
	// the operation was never invoked. Callers should surface this as
	// service-unavailable rather than a generic failure.
	ErrCallNotPermitted = errors.New("call not permitted: circuit breaker is open")

	// ErrTimeout is returned when the operation deadline expired. The
	// in-flight attempt is cancelled best-effort and no further retries run.
	ErrTimeout = errors.New("operation timed out")
)

// RetryExhaustedError wraps the last underlying error after all retry
// attempts failed.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// nonRetryableError marks an error as caller error rather than resource
// degradation. Non-retryable errors are surfaced on the first attempt and are
// excluded from circuit breaker failure accounting.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable marks err as non-retryable. Returns nil if err is nil.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsNonRetryable reports whether err carries the non-retryable marker.
func IsNonRetryable(err error) bool {
	var nre *nonRetryableError
	return errors.As(err, &nre)
}

// unwrapNonRetryable strips the non-retryable marker, returning the original
// error the operation produced.
func unwrapNonRetryable(err error) error {
	var nre *nonRetryableError
	if errors.As(err, &nre) {
		return nre.err
	}
	return err
}
