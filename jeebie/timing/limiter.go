// Package timing paces emulation to the Game Boy's frame rate.
package timing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Pacing modes accepted by New.
const (
	PacingAdaptive = "adaptive"
	PacingTicker   = "ticker"
	PacingNone     = "none"
)

// ErrUnknownPacing is returned by New for a mode it doesn't know.
var ErrUnknownPacing = errors.New("unknown pacing mode")

// Limiter controls frame rate timing for emulation.
type Limiter interface {
	// Wait blocks until the next frame is due or ctx is done.
	// Returns immediately if timing is behind schedule.
	Wait(ctx context.Context) error

	// Reset restarts the schedule, useful after a pause.
	Reset()

	// Stop releases any timers held by the limiter.
	Stop()
}

// Constants for Game Boy timing
const (
	CyclesPerFrame = 70224
	CPUFrequency   = 4194304
)

// TargetFPS calculates the exact Game Boy frame rate.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// Modes lists the names New accepts.
func Modes() []string {
	return []string{PacingAdaptive, PacingTicker, PacingNone}
}

// New returns the limiter for a pacing mode. A zero frame means FrameDuration.
func New(mode string, frame time.Duration) (Limiter, error) {
	if frame <= 0 {
		frame = FrameDuration()
	}
	switch mode {
	case PacingAdaptive:
		return NewAdaptiveLimiter(frame), nil
	case PacingTicker:
		return NewTickerLimiter(frame), nil
	case PacingNone:
		return NewNoOpLimiter(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPacing, mode)
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) Wait(ctx context.Context) error { return ctx.Err() }
func (noOpLimiter) Reset()                         {}
func (noOpLimiter) Stop()                          {}
