package resilience

import (
	"context"
	"fmt"
	"time"
)

// Pinger is the liveness surface of the protected resource.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the result of a health probe, correlated with the circuit
// breaker's view of the dependency for operator reporting.
type Status struct {
	Healthy      bool   `json:"healthy"`
	Detail       string `json:"detail,omitempty"`
	BreakerState string `json:"breaker_state"`
}

// HealthProbe checks the protected resource directly, independent of the
// breaker's own bookkeeping. Probe failures never propagate as panics or
// errors; they are converted to a Down status.
type HealthProbe struct {
	pinger  Pinger
	breaker *Breaker
	timeout time.Duration
}

// NewHealthProbe creates a probe over the given resource. timeout bounds the
// liveness check; zero means one second.
func NewHealthProbe(pinger Pinger, breaker *Breaker, timeout time.Duration) *HealthProbe {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &HealthProbe{pinger: pinger, breaker: breaker, timeout: timeout}
}

// Check performs an on-demand liveness check of the protected resource.
func (p *HealthProbe) Check(ctx context.Context) (status Status) {
	status.BreakerState = p.breaker.State().String()

	defer func() {
		if r := recover(); r != nil {
			status.Healthy = false
			status.Detail = fmt.Sprintf("probe panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.pinger.Ping(ctx); err != nil {
		status.Healthy = false
		status.Detail = err.Error()
		return status
	}

	status.Healthy = true
	return status
}
