// Package resilience protects a blocking dependency (typically the database)
// with a composed circuit breaker, retry policy, and time limiter. The
// Executor wraps caller-supplied operations; the Breaker tracks a sliding
// window of call outcomes and sheds load while the dependency is unhealthy.
package resilience

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// callOutcome is one recorded call result.
type callOutcome struct {
	succeeded bool
	slow      bool
}

// outcomeRing is a fixed-size ring buffer of the most recent call outcomes,
// with running failure and slow counters so rates are O(1).
type outcomeRing struct {
	buf      []callOutcome
	pos      int
	count    int
	failures int
	slow     int
}

func newOutcomeRing(size int) *outcomeRing {
	return &outcomeRing{buf: make([]callOutcome, size)}
}

// record appends an outcome, evicting the oldest entry once full.
func (r *outcomeRing) record(o callOutcome) {
	if r.count == len(r.buf) {
		old := r.buf[r.pos]
		if !old.succeeded {
			r.failures--
		}
		if old.slow {
			r.slow--
		}
	} else {
		r.count++
	}

	r.buf[r.pos] = o
	if !o.succeeded {
		r.failures++
	}
	if o.slow {
		r.slow++
	}
	r.pos = (r.pos + 1) % len(r.buf)
}

func (r *outcomeRing) failureRate() float64 {
	if r.count == 0 {
		return 0
	}
	return float64(r.failures) / float64(r.count) * 100
}

func (r *outcomeRing) slowRate() float64 {
	if r.count == 0 {
		return 0
	}
	return float64(r.slow) / float64(r.count) * 100
}

func (r *outcomeRing) reset() {
	r.pos = 0
	r.count = 0
	r.failures = 0
	r.slow = 0
}

// Breaker is a circuit breaker over a count-based sliding window of call
// outcomes. It starts closed, opens when the failure or slow-call rate over
// the window crosses its threshold, cools down for a configured duration,
// then probes recovery with a limited budget of half-open trial calls.
// Safe for concurrent use.
type Breaker struct {
	cfg Config
	now func() time.Time

	mu               sync.Mutex
	state            State
	window           *outcomeRing
	openedAt         time.Time
	halfOpenInFlight int
	halfOpenDone     int
}

// NewBreaker creates a closed circuit breaker with the given configuration.
func NewBreaker(cfg Config) *Breaker {
	return &Breaker{
		cfg:    cfg,
		now:    time.Now,
		state:  StateClosed,
		window: newOutcomeRing(cfg.SlidingWindowSize),
	}
}

// State returns the current breaker state, applying the open-to-half-open
// transition if the cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.WaitDurationInOpenState {
		b.toHalfOpen()
	}
	return b.state
}

// Acquire is the gate check consulted before every call. It returns
// ErrCallNotPermitted while the breaker is open or the half-open trial budget
// is spent; otherwise the caller owes exactly one record() or release() for
// this call.
func (b *Breaker) Acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.WaitDurationInOpenState {
			return ErrCallNotPermitted
		}
		b.toHalfOpen()
		fallthrough
	case StateHalfOpen:
		if b.halfOpenInFlight+b.halfOpenDone >= b.cfg.PermittedCallsInHalfOpen {
			return ErrCallNotPermitted
		}
		b.halfOpenInFlight++
		return nil
	}
	return nil
}

// record reports one call outcome. Called exactly once per acquired call,
// after it completes or times out.
func (b *Breaker) record(succeeded bool, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	slow := duration >= b.cfg.SlowCallDurationThreshold

	switch b.state {
	case StateHalfOpen:
		if b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		b.halfOpenDone++
		if !succeeded {
			// A single failed trial sends the breaker straight back open.
			b.toOpen()
			return
		}
		if b.halfOpenDone >= b.cfg.PermittedCallsInHalfOpen {
			b.toClosed()
		}
	default:
		b.window.record(callOutcome{succeeded: succeeded, slow: slow})
		if b.state == StateClosed && b.shouldTrip() {
			b.toOpen()
		}
	}
}

// release returns an acquired call slot without recording an outcome. Used
// when a call resolves to a caller error or caller cancellation, which says
// nothing about the dependency's health. A released half-open slot does not
// count toward the trial budget, so the next call may take it.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}
}

// shouldTrip evaluates the window against the configured thresholds.
// Caller must hold b.mu.
func (b *Breaker) shouldTrip() bool {
	if b.window.count < b.cfg.MinimumNumberOfCalls {
		return false
	}
	return b.window.failureRate() >= b.cfg.FailureRateThreshold ||
		b.window.slowRate() >= b.cfg.SlowCallRateThreshold
}

// Callers of the transition helpers must hold b.mu.

func (b *Breaker) toOpen() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.window.reset()
	b.halfOpenInFlight = 0
	b.halfOpenDone = 0
}

func (b *Breaker) toHalfOpen() {
	b.state = StateHalfOpen
	b.halfOpenInFlight = 0
	b.halfOpenDone = 0
}

func (b *Breaker) toClosed() {
	b.state = StateClosed
	b.window.reset()
	b.halfOpenInFlight = 0
	b.halfOpenDone = 0
}
