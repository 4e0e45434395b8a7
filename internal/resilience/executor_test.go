package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecutorConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxRetryAttempts = 3
	cfg.RetryBackoff = time.Millisecond
	cfg.OperationTimeout = time.Second
	cfg.SlidingWindowSize = 5
	cfg.MinimumNumberOfCalls = 5
	cfg.WaitDurationInOpenState = 30 * time.Second
	return cfg
}

func newTestExecutor(t *testing.T, cfg Config) *Executor {
	t.Helper()
	exec, err := NewExecutor(cfg)
	require.NoError(t, err)
	return exec
}

func TestNewExecutor_RejectsInvalidConfig(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MaxRetryAttempts = 0

	_, err := NewExecutor(cfg)
	assert.Error(t, err)
}

func TestExecute_Success(t *testing.T) {
	exec := newTestExecutor(t, testExecutorConfig())

	var calls int32
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, StateClosed, exec.Breaker().State())
}

func TestExecute_RetriesTransientFailure(t *testing.T) {
	exec := newTestExecutor(t, testExecutorConfig())

	var calls int32
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExecute_RetryExhausted(t *testing.T) {
	exec := newTestExecutor(t, testExecutorConfig())

	opErr := errors.New("connection refused")
	var calls int32
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return opErr
	})

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, opErr)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExecute_ExhaustedRunCountsAsOneBreakerFailure(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MinimumNumberOfCalls = 2
	cfg.SlidingWindowSize = 2
	exec := newTestExecutor(t, cfg)

	// One exhausted execution is one outcome, so a single run (three
	// attempts) must not satisfy the two-call minimum.
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("down")
	})
	require.Error(t, err)
	assert.Equal(t, StateClosed, exec.Breaker().State())

	err = exec.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("down")
	})
	require.Error(t, err)
	assert.Equal(t, StateOpen, exec.Breaker().State())
}

func TestExecute_NonRetryableReturnsImmediately(t *testing.T) {
	exec := newTestExecutor(t, testExecutorConfig())

	opErr := errors.New("no such account")
	var calls int32
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return NonRetryable(opErr)
	})

	// Unwrapped, single attempt, and no breaker accounting.
	assert.Equal(t, opErr, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExecute_NonRetryableExcludedFromBreaker(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MinimumNumberOfCalls = 1
	cfg.SlidingWindowSize = 1
	cfg.FailureRateThreshold = 50
	exec := newTestExecutor(t, cfg)

	// Enough caller errors to trip the breaker many times over, were they
	// counted.
	for i := 0; i < 10; i++ {
		err := exec.Execute(context.Background(), func(ctx context.Context) error {
			return NonRetryable(errors.New("validation failed"))
		})
		require.Error(t, err)
	}

	assert.Equal(t, StateClosed, exec.Breaker().State())
}

func TestExecute_Timeout(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.OperationTimeout = 50 * time.Millisecond
	exec := newTestExecutor(t, cfg)

	start := time.Now()
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, elapsed, time.Second, "Execute must return promptly at the deadline")
}

func TestExecute_TimeoutRecordsSingleFailure(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.OperationTimeout = 20 * time.Millisecond
	cfg.MinimumNumberOfCalls = 2
	cfg.SlidingWindowSize = 2
	exec := newTestExecutor(t, cfg)

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		require.ErrorIs(t, err, ErrTimeout)
	}

	assert.Equal(t, StateOpen, exec.Breaker().State())
}

func TestExecute_CallerCancellation(t *testing.T) {
	exec := newTestExecutor(t, testExecutorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_OpenBreakerShedsWithoutInvoking(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MinimumNumberOfCalls = 1
	cfg.SlidingWindowSize = 1
	exec := newTestExecutor(t, cfg)

	// Trip the breaker.
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("down")
	})
	require.Error(t, err)
	require.Equal(t, StateOpen, exec.Breaker().State())

	var calls int32
	err = exec.Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.ErrorIs(t, err, ErrCallNotPermitted)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "operation must not run while open")
}

func TestExecute_RecoveryThroughHalfOpen(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MinimumNumberOfCalls = 1
	cfg.SlidingWindowSize = 1
	cfg.PermittedCallsInHalfOpen = 1
	cfg.WaitDurationInOpenState = 20 * time.Millisecond
	exec := newTestExecutor(t, cfg)

	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("down")
	})
	require.Error(t, err)
	require.Equal(t, StateOpen, exec.Breaker().State())

	time.Sleep(30 * time.Millisecond)

	// The trial call succeeds and closes the breaker.
	err = exec.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, exec.Breaker().State())
}

func TestExecute_NonRetryableDoesNotConsumeHalfOpenBudget(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MinimumNumberOfCalls = 1
	cfg.SlidingWindowSize = 1
	cfg.PermittedCallsInHalfOpen = 2
	cfg.WaitDurationInOpenState = 20 * time.Millisecond
	exec := newTestExecutor(t, cfg)

	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("down")
	})
	require.Error(t, err)
	require.Equal(t, StateOpen, exec.Breaker().State())

	time.Sleep(30 * time.Millisecond)

	// Caller errors during recovery must hand their trial slot back instead
	// of wedging the breaker with a saturated budget.
	for i := 0; i < 5; i++ {
		err := exec.Execute(context.Background(), func(ctx context.Context) error {
			return NonRetryable(errors.New("no such account"))
		})
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrCallNotPermitted)
	}

	// Healthy trials still get through and close the breaker.
	for i := 0; i < 2; i++ {
		require.NoError(t, exec.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		}))
	}
	assert.Equal(t, StateClosed, exec.Breaker().State())
}

func TestExecute_CancellationNotCountedAsFailure(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MinimumNumberOfCalls = 1
	cfg.SlidingWindowSize = 1
	exec := newTestExecutor(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := exec.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)

	// A disconnecting client is not evidence against the database.
	assert.Equal(t, StateClosed, exec.Breaker().State())
}

func TestExecute_ConcurrencyBounded(t *testing.T) {
	cfg := testExecutorConfig()
	cfg.MaxConcurrentCalls = 2
	cfg.OperationTimeout = 2 * time.Second
	exec := newTestExecutor(t, cfg)

	var inFlight, peak int32
	done := make(chan error, 6)
	for i := 0; i < 6; i++ {
		go func() {
			done <- exec.Execute(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	for i := 0; i < 6; i++ {
		require.NoError(t, <-done)
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDo_ReturnsValue(t *testing.T) {
	exec := newTestExecutor(t, testExecutorConfig())

	got, err := Do(context.Background(), exec, func(ctx context.Context) (string, error) {
		return "ledger", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ledger", got)
}

func TestDo_ZeroValueOnError(t *testing.T) {
	exec := newTestExecutor(t, testExecutorConfig())

	got, err := Do(context.Background(), exec, func(ctx context.Context) (int, error) {
		return 42, NonRetryable(errors.New("nope"))
	})
	require.Error(t, err)
	assert.Zero(t, got)
}

func TestNonRetryable(t *testing.T) {
	assert.Nil(t, NonRetryable(nil))

	base := errors.New("bad input")
	wrapped := NonRetryable(base)
	assert.True(t, IsNonRetryable(wrapped))
	assert.False(t, IsNonRetryable(base))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, base, unwrapNonRetryable(wrapped))
	assert.Equal(t, base, unwrapNonRetryable(base))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero failure threshold", func(c *Config) { c.FailureRateThreshold = 0 }},
		{"failure threshold over 100", func(c *Config) { c.FailureRateThreshold = 101 }},
		{"zero slow threshold", func(c *Config) { c.SlowCallRateThreshold = 0 }},
		{"zero window", func(c *Config) { c.SlidingWindowSize = 0 }},
		{"zero minimum calls", func(c *Config) { c.MinimumNumberOfCalls = 0 }},
		{"zero half-open budget", func(c *Config) { c.PermittedCallsInHalfOpen = 0 }},
		{"zero wait duration", func(c *Config) { c.WaitDurationInOpenState = 0 }},
		{"zero retry attempts", func(c *Config) { c.MaxRetryAttempts = 0 }},
		{"zero timeout", func(c *Config) { c.OperationTimeout = 0 }},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentCalls = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
