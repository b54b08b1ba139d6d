package jeebie

import (
	"log/slog"

	"github.com/valerio/jeebug/jeebie/memory"
	"github.com/valerio/jeebug/jeebie/serial"
)

// Option configures a Session at load time.
type Option func(*Session)

// WithLogger routes session logging to logger instead of slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithRTCClock sets the wall clock used by MBC3 real-time clocks.
func WithRTCClock(clock memory.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithCallStackDepth bounds the number of call frames the CPU tracks.
func WithCallStackDepth(depth int) Option {
	return func(s *Session) { s.callDepth = depth }
}

// WithSerialTiming makes link transfers take 4096 cycles, as with the
// internal clock at 8192Hz, instead of completing on the next tick.
func WithSerialTiming() Option {
	return func(s *Session) { s.serialOpts = append(s.serialOpts, serial.WithFixedTiming()) }
}
