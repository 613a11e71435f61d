package server

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Limiter is a process-local fixed-window rate limiter. Each key holds a
// count and a reset time; the first request after the reset opens a fresh
// window. State is in memory only; a restart forgives everyone, which is
// fine for the griefing threat model this guards against.
type Limiter struct {
	mu      sync.Mutex
	clock   quartz.Clock
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

// Decision is the outcome of one limiter check, carried into the
// X-RateLimit response headers.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole seconds until the window resets, at least 1.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}

// NewLimiter builds a limiter on the given clock.
func NewLimiter(clock quartz.Clock) *Limiter {
	return &Limiter{clock: clock, windows: make(map[string]*window)}
}

// Allow consumes one request from key's window of `limit` per `period`.
func (l *Limiter) Allow(key string, limit int, period time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(period)}
		l.windows[key] = w
	}
	d := Decision{Limit: limit, ResetAt: w.resetAt}
	if w.count >= limit {
		return d
	}
	w.count++
	d.Allowed = true
	d.Remaining = limit - w.count
	return d
}
