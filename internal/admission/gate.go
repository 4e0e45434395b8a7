// Package admission provides per-client request admission control using an
// exact sliding-window rate limiter. Each client is tracked by a timestamp
// ledger rather than a fixed-bucket counter, which avoids the double-burst
// problem at bucket boundaries. It includes HTTP middleware that sets standard
// rate limit response headers.
package admission

import (
	"sort"
	"sync"
	"time"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Limit     int       // Maximum requests per window
	Remaining int       // Requests left in the current window (0 when denied)
	ResetAt   time.Time // When quota becomes available again
}

// Config holds the admission gate settings.
type Config struct {
	// Enabled toggles admission control. A disabled gate admits every
	// request without any bookkeeping.
	Enabled bool

	// Limit is the maximum number of admitted requests per Window.
	// A limit of zero rejects every request.
	Limit int

	// Window is the sliding window length.
	Window time.Duration

	// CleanupInterval is how often the background reaper purges stale
	// client entries.
	CleanupInterval time.Duration
}

// ledger tracks one client's admitted request timestamps in chronological
// order. Its mutex makes Admit and the reaper's purge mutually exclusive for
// this client without serializing unrelated clients.
type ledger struct {
	mu       sync.Mutex
	events   []time.Time
	lastSeen time.Time
}

// countSince returns the number of events at or after start.
func (l *ledger) countSince(start time.Time) int {
	i := sort.Search(len(l.events), func(i int) bool {
		return !l.events[i].Before(start)
	})
	return len(l.events) - i
}

// oldestSince returns the earliest event at or after start. Only valid when
// countSince(start) > 0.
func (l *ledger) oldestSince(start time.Time) time.Time {
	i := sort.Search(len(l.events), func(i int) bool {
		return !l.events[i].Before(start)
	})
	return l.events[i]
}

// purge drops events older than cutoff. Caller must hold l.mu.
func (l *ledger) purge(cutoff time.Time) {
	i := sort.Search(len(l.events), func(i int) bool {
		return !l.events[i].Before(cutoff)
	})
	if i == 0 {
		return
	}
	remaining := len(l.events) - i
	if remaining < cap(l.events)/2 {
		// Re-slice onto a fresh array so the old backing array can be
		// collected.
		fresh := make([]time.Time, remaining)
		copy(fresh, l.events[i:])
		l.events = fresh
	} else {
		l.events = l.events[i:]
	}
}

// Gate is an in-memory admission gate tracking a sliding window of request
// timestamps per client. A background goroutine periodically evicts entries
// whose events have all aged past 2x the window. Safe for concurrent use.
type Gate struct {
	cfg Config

	mu      sync.Mutex // guards clients map, not the per-client ledgers
	clients map[string]*ledger
	done    chan struct{}
	closed  bool
}

// NewGate creates an admission gate and starts its background reaper.
// Call Close to stop the reaper.
func NewGate(cfg Config) *Gate {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	g := &Gate{
		cfg:     cfg,
		clients: make(map[string]*ledger),
		done:    make(chan struct{}),
	}
	go g.reap()
	return g
}

// Admit decides whether a request from clientID observed at now may proceed.
// clientID must be non-empty; now is the caller's wall-clock reading. A
// rejected request consumes no quota. Decisions for a single client are
// linearizable; clients never contend with each other.
func (g *Gate) Admit(clientID string, now time.Time) Decision {
	if !g.cfg.Enabled {
		return Decision{Allowed: true, Limit: g.cfg.Limit, Remaining: g.cfg.Limit, ResetAt: now.Add(g.cfg.Window)}
	}

	g.mu.Lock()
	l, ok := g.clients[clientID]
	if !ok {
		l = &ledger{}
		g.clients[clientID] = l
	}
	g.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Clamp against clock regression: a stepped-back clock must not re-open
	// quota that was already consumed.
	if now.Before(l.lastSeen) {
		now = l.lastSeen
	}
	l.lastSeen = now

	windowStart := now.Add(-g.cfg.Window)
	count := l.countSince(windowStart)

	if count >= g.cfg.Limit {
		resetAt := now.Add(g.cfg.Window)
		if count > 0 {
			resetAt = l.oldestSince(windowStart).Add(g.cfg.Window)
		}
		return Decision{Allowed: false, Limit: g.cfg.Limit, Remaining: 0, ResetAt: resetAt}
	}

	l.events = append(l.events, now)
	return Decision{
		Allowed:   true,
		Limit:     g.cfg.Limit,
		Remaining: g.cfg.Limit - count - 1,
		ResetAt:   now.Add(g.cfg.Window),
	}
}

// Close stops the background reaper. Safe to call more than once.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.closed = true
		close(g.done)
	}
}

// reap periodically purges events older than 2x the window and drops clients
// with no remaining events.
func (g *Gate) reap() {
	ticker := time.NewTicker(g.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case now := <-ticker.C:
			g.cleanup(now.Add(-2 * g.cfg.Window))
		}
	}
}

// cleanup purges events older than cutoff from every tracked client and
// removes clients that end up with no events. Idempotent; holds each client's
// ledger lock only briefly so it never blocks admits for other clients.
func (g *Gate) cleanup(cutoff time.Time) {
	g.mu.Lock()
	keys := make([]string, 0, len(g.clients))
	for key := range g.clients {
		keys = append(keys, key)
	}
	g.mu.Unlock()

	for _, key := range keys {
		g.mu.Lock()
		l, ok := g.clients[key]
		g.mu.Unlock()
		if !ok {
			continue
		}

		l.mu.Lock()
		l.purge(cutoff)
		empty := len(l.events) == 0
		l.mu.Unlock()

		if empty {
			g.mu.Lock()
			// Re-check under both locks: an admit may have recorded a new
			// event between the purge and here.
			if l, ok := g.clients[key]; ok {
				l.mu.Lock()
				if len(l.events) == 0 {
					delete(g.clients, key)
				}
				l.mu.Unlock()
			}
			g.mu.Unlock()
		}
	}
}

// tracked returns the number of clients currently tracked.
func (g *Gate) tracked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}
