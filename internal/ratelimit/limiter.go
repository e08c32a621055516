package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"phonodex/internal/logging"
)

// Discogs rate-limit response headers (matched case-insensitively by
// net/http's canonical header lookup).
const (
	HeaderLimit     = "X-Discogs-Ratelimit"
	HeaderUsed      = "X-Discogs-Ratelimit-Used"
	HeaderRemaining = "X-Discogs-Ratelimit-Remaining"
)

// DefaultBudget and DefaultWindow mirror the documented Discogs limits for
// token-authenticated clients.
const (
	DefaultBudget = 60
	DefaultWindow = 60 * time.Second
)

// Snapshot is a point-in-time copy of the limiter counters, safe to hand to
// progress reporting without further locking.
type Snapshot struct {
	Total       int
	Used        int
	Remaining   int
	WindowStart time.Time
}

// WaitFunc is notified before the limiter blocks for the remainder of an
// exhausted window. It exists for UI responsiveness, not cancellation; use
// the context to abort the wait.
type WaitFunc func(wait time.Duration, snap Snapshot)

// Limiter tracks the remaining call budget over a rolling window.
//
// The mutex guards only counter reads and writes. The blocking wait in
// Acquire happens outside the lock so Observe and Snapshot stay responsive
// while a caller sleeps out the window.
type Limiter struct {
	mu          sync.Mutex
	total       int
	used        int
	remaining   int
	windowStart time.Time
	window      time.Duration

	logger *slog.Logger
	onWait WaitFunc

	// test seams
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWaitFunc registers a callback invoked before a blocking window wait.
func WithWaitFunc(fn WaitFunc) Option {
	return func(l *Limiter) {
		l.onWait = fn
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSleep overrides the blocking sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New creates a limiter seeded with the given budget and window. Non-positive
// values fall back to the Discogs defaults.
func New(budget int, window time.Duration, logger *slog.Logger, opts ...Option) *Limiter {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		total:     budget,
		remaining: budget,
		window:    window,
		logger:    logging.NewComponentLogger(logger, "ratelimit"),
		now:       time.Now,
		sleep:     sleepWithContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire admits one call, blocking for the remainder of the window when the
// budget is spent. The budget is not decremented here; Observe applies the
// server's accounting once the response arrives.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()

	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
		l.resetLocked(now)
		l.mu.Unlock()
		return nil
	}

	if l.remaining > 0 {
		l.mu.Unlock()
		return nil
	}

	wait := l.window - now.Sub(l.windowStart)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.logger.Debug("rate limit window exhausted",
		logging.Duration("wait", wait),
		logging.Int("used", snap.Used),
		logging.Int("total", snap.Total))
	if l.onWait != nil {
		l.onWait(wait, snap)
	}

	if err := l.sleep(ctx, wait); err != nil {
		return err
	}

	l.mu.Lock()
	l.resetLocked(l.now())
	l.mu.Unlock()
	l.logger.Debug("rate limit window reset, resuming")
	return nil
}

// Observe updates the counters from a response. When the Discogs headers are
// present their values replace local accounting wholesale; otherwise one call
// is charged against the local window as a conservative fallback.
func (l *Limiter) Observe(headers http.Header) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	if total, ok := parseHeaderInt(headers, HeaderLimit); ok {
		l.total = total
		l.used, _ = parseHeaderInt(headers, HeaderUsed)
		if remaining, ok := parseHeaderInt(headers, HeaderRemaining); ok {
			l.remaining = remaining
		} else {
			l.remaining = l.total - l.used
		}
		if l.windowStart.IsZero() {
			l.windowStart = l.now()
		}
		return l.snapshotLocked()
	}

	l.used++
	l.remaining--
	if l.remaining < 0 {
		l.remaining = 0
	}
	return l.snapshotLocked()
}

// Snapshot returns the current counters.
func (l *Limiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Limiter) resetLocked(now time.Time) {
	l.windowStart = now
	l.remaining = l.total
	l.used = 0
}

func (l *Limiter) snapshotLocked() Snapshot {
	return Snapshot{
		Total:       l.total,
		Used:        l.used,
		Remaining:   l.remaining,
		WindowStart: l.windowStart,
	}
}

func parseHeaderInt(headers http.Header, key string) (int, bool) {
	if headers == nil {
		return 0, false
	}
	raw := strings.TrimSpace(headers.Get(key))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
