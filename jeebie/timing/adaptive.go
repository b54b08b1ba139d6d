package timing

import (
	"context"
	"log/slog"
	"time"
)

const (
	// Below this much remaining time the limiter spins instead of sleeping.
	spinThreshold = 2 * time.Millisecond
	// Falling further behind than this drops the backlog.
	maxLag = 5 * time.Millisecond
	// Drift is checked every driftWindow frames.
	driftWindow = 60
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	frame   time.Duration
	next    time.Time
	started time.Time
	frames  int64
}

func NewAdaptiveLimiter(frame time.Duration) *AdaptiveLimiter {
	a := &AdaptiveLimiter{frame: frame}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	now := time.Now()
	remaining := a.next.Sub(now)

	switch {
	case remaining > spinThreshold:
		timer := time.NewTimer(remaining - time.Millisecond)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		spinUntil(a.next)
	case remaining > 0:
		spinUntil(a.next)
	case remaining < -maxLag:
		a.next = now
	}

	a.next = a.next.Add(a.frame)
	a.frames++

	if a.frames%driftWindow == 0 {
		a.correctDrift()
	}
	return ctx.Err()
}

// correctDrift nudges the schedule when wall time and frame count disagree.
func (a *AdaptiveLimiter) correctDrift() {
	expected := a.started.Add(time.Duration(a.frames) * a.frame)
	drift := time.Since(expected)
	if drift.Abs() <= 10*time.Millisecond {
		return
	}

	a.next = a.next.Add(drift / 10)
	elapsed := time.Since(a.started)
	slog.Debug("Frame timing drift correction",
		"drift_ms", drift.Milliseconds(),
		"fps", float64(a.frames)/elapsed.Seconds())
}

func (a *AdaptiveLimiter) Reset() {
	a.started = time.Now()
	a.next = a.started
	a.frames = 0
}

func (a *AdaptiveLimiter) Stop() {}

func spinUntil(deadline time.Time) {
	for time.Now().Before(deadline) {
	}
}
