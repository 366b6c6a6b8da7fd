// Package timer tracks interview time: an elapsed-seconds counter for
// display and, for scheduled sessions, a wall-clock deadline that forces
// termination after a grace delay.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultGrace is the pause between the deadline passing and forced
// termination, long enough for the expiry notice to land.
const DefaultGrace = 3 * time.Second

// Config configures a Timer.
type Config struct {
	// End is the session deadline. Zero means the session is open-ended
	// and only elapsed time is tracked.
	End time.Time
	// Grace overrides DefaultGrace.
	Grace time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time

	// OnTick fires once per second with the current display values.
	OnTick func(elapsed time.Duration, remainingMinutes int)
	// OnExpire fires exactly once, a grace period after the deadline
	// passes.
	OnExpire func()

	Logger *slog.Logger
}

// Timer is the per-session clock. Remaining time is recomputed from the
// wall clock on every tick, never decremented, so jitter and process
// suspension cannot make it drift.
type Timer struct {
	cfg    Config
	now    func() time.Time
	grace  time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	elapsed   time.Duration
	scheduled bool
	graceTmr  *time.Timer
}

// New creates a Timer. Call Run to drive it, or Tick directly.
func New(cfg Config) *Timer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	grace := cfg.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Timer{cfg: cfg, now: now, grace: grace, logger: logger}
}

// Run ticks once per second until ctx is cancelled.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Tick advances the elapsed counter by one second and re-evaluates the
// deadline.
func (t *Timer) Tick() {
	t.mu.Lock()
	t.elapsed += time.Second
	elapsed := t.elapsed
	t.mu.Unlock()

	remaining, hasDeadline := t.RemainingMinutes()
	if hasDeadline && remaining == 0 {
		t.scheduleExpiry()
	}

	if t.cfg.OnTick != nil {
		t.cfg.OnTick(elapsed, remaining)
	}
}

// Elapsed returns time accumulated across Tick calls.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// ElapsedString renders elapsed time as MM:SS.
func (t *Timer) ElapsedString() string {
	return FormatElapsed(t.Elapsed())
}

// RemainingMinutes returns whole minutes until the deadline, floored at
// zero. The second return is false for open-ended sessions.
func (t *Timer) RemainingMinutes() (int, bool) {
	if t.cfg.End.IsZero() {
		return 0, false
	}
	left := t.cfg.End.Sub(t.now())
	if left <= 0 {
		return 0, true
	}
	return int(left.Minutes()), true
}

// Expired reports whether termination has been scheduled or fired.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduled
}

func (t *Timer) scheduleExpiry() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scheduled {
		return
	}
	t.scheduled = true

	t.logger.Warn("session time expired, scheduling termination", "grace", t.grace)
	t.graceTmr = time.AfterFunc(t.grace, func() {
		if t.cfg.OnExpire != nil {
			t.cfg.OnExpire()
		}
	})
}

// Stop cancels a pending expiry callback. It does not undo one that has
// already fired.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.graceTmr != nil {
		t.graceTmr.Stop()
		t.graceTmr = nil
	}
}

// FormatElapsed renders a duration as MM:SS.
func FormatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
