// Package jeebie wires the Game Boy components into a debuggable session.
package jeebie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/cartridge"
	"github.com/valerio/jeebug/jeebie/cpu"
	"github.com/valerio/jeebug/jeebie/debug"
	"github.com/valerio/jeebug/jeebie/interrupt"
	"github.com/valerio/jeebug/jeebie/memory"
	"github.com/valerio/jeebug/jeebie/serial"
	"github.com/valerio/jeebug/jeebie/timer"
	"github.com/valerio/jeebug/jeebie/timing"
	"github.com/valerio/jeebug/jeebie/video"
)

// The divider value the DMG boot ROM leaves behind.
const postBootDivider = 0xABCC

// StopReason tells why Run returned.
type StopReason int

const (
	StopBreakpoint StopReason = iota
	StopPaused
	StopCanceled
	StopFault
	StopFrame
)

func (r StopReason) String() string {
	switch r {
	case StopBreakpoint:
		return "breakpoint"
	case StopPaused:
		return "paused"
	case StopCanceled:
		return "canceled"
	case StopFault:
		return "fault"
	case StopFrame:
		return "frame"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// Session owns one loaded cartridge and the machine running it.
//
// Pause, Frame and FrameCount may be called from any goroutine. Everything else
// belongs to the goroutine driving the session.
type Session struct {
	log        *slog.Logger
	clock      memory.Clock
	callDepth  int
	serialOpts []serial.Option

	cart   *cartridge.Cartridge
	ram    memory.RAM
	irq    *interrupt.Controller
	timer  *timer.Timer
	ppu    *video.PPU
	joypad *memory.Joypad
	serial *serial.Port
	bus    *memory.Bus
	cpu    *cpu.CPU

	breakpoints *debug.Breakpoints
	lastHit     debug.Hit
	resumePC    uint16
	resuming    bool
	paused      atomic.Bool
	faultLogged bool
}

// Load parses a ROM image and returns a session in the post-boot state.
func Load(data []byte, opts ...Option) (*Session, error) {
	s := &Session{
		log:         slog.Default(),
		callDepth:   cpu.DefaultCallStackDepth,
		breakpoints: debug.NewBreakpoints(),
		irq:         interrupt.New(),
		timer:       timer.New(),
		ppu:         video.New(),
		joypad:      memory.NewJoypad(),
	}
	for _, opt := range opts {
		opt(s)
	}

	cart, err := cartridge.New(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load cartridge: %w", err)
	}
	s.cart = cart
	s.serial = serial.NewPort(s.irq, append([]serial.Option{serial.WithLogger(s.log)}, s.serialOpts...)...)

	for _, warning := range cart.Warnings() {
		s.log.Warn("Cartridge header problem", "error", warning)
	}

	if err := s.Reset(); err != nil {
		return nil, err
	}

	s.log.Info("Cartridge loaded",
		"title", cart.Title(),
		"mapper", cart.Mapper().String(),
		"rom_banks", cart.ROMBanks(),
		"ram_bytes", len(cart.RAM()),
	)
	return s, nil
}

// LoadFile reads a ROM from disk and loads it.
func LoadFile(path string, opts ...Option) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM file: %w", err)
	}
	return Load(data, opts...)
}

// Reset puts the machine back into the state the boot ROM hands over in.
// Cartridge RAM survives; the mapper's banking state does not.
func (s *Session) Reset() error {
	mbc, err := memory.NewMBC(s.cart, s.clock)
	if err != nil {
		return err
	}

	s.ram = memory.RAM{}
	s.irq.Reset()
	s.joypad.Reset()
	s.serial.Reset()
	s.ppu.Reset()
	s.timer.Reset(postBootDivider)

	s.bus = memory.NewBus(memory.Config{
		MBC:    mbc,
		RAM:    &s.ram,
		PPU:    s.ppu,
		Timer:  s.timer,
		IRQ:    s.irq,
		Joypad: s.joypad,
		Serial: s.serial,
	})
	s.writeIODefaults()

	s.cpu = cpu.New(s.bus, s.irq)
	s.cpu.SetCallStackDepth(s.callDepth)

	s.lastHit = debug.Hit{}
	s.resuming = false
	s.faultLogged = false
	s.log.Debug("Session reset", "pc", fmt.Sprintf("0x%04X", s.cpu.PC()))
	return nil
}

var ioDefaults = []struct {
	address uint16
	value   byte
}{
	{addr.P1, 0xCF},
	{addr.NR10, 0x80},
	{addr.NR11, 0xBF},
	{addr.NR12, 0xF3},
	{addr.NR14, 0xBF},
	{addr.NR21, 0x3F},
	{addr.NR22, 0x00},
	{addr.NR24, 0xBF},
	{addr.NR30, 0x7F},
	{addr.NR31, 0xFF},
	{addr.NR32, 0x9F},
	{addr.NR33, 0xBF},
	{addr.NR41, 0xFF},
	{addr.NR42, 0x00},
	{addr.NR43, 0x00},
	{addr.NR44, 0xBF},
	{addr.NR50, 0x77},
	{addr.NR51, 0xF3},
	{addr.NR52, 0xF1},
	{addr.BGP, 0xFC},
	{addr.OBP0, 0xFF},
	{addr.OBP1, 0xFF},
	{addr.LCDC, 0x91},
}

func (s *Session) writeIODefaults() {
	for _, io := range ioDefaults {
		s.bus.Write(io.address, io.value)
	}
}

// Step executes one CPU step and advances the timer, the PPU and DMA by the
// cycles it took. Breakpoints are not consulted.
func (s *Session) Step() (int, error) {
	s.resuming = false
	cycles, err := s.cpu.Step()
	if err != nil {
		s.logFault(err)
		return 0, err
	}

	s.timer.Tick(cycles, s.irq)
	s.ppu.Tick(cycles, s.irq)
	s.bus.Tick(cycles)
	return cycles, nil
}

func (s *Session) logFault(err error) {
	if s.faultLogged {
		return
	}
	s.faultLogged = true

	var decodeErr *cpu.DecodeError
	if errors.As(err, &decodeErr) {
		s.log.Error("CPU halted on illegal opcode",
			"pc", fmt.Sprintf("0x%04X", decodeErr.Address),
			"opcode", fmt.Sprintf("0x%02X", decodeErr.Opcode),
		)
		return
	}
	s.log.Error("CPU fault", "error", err)
}

// Run executes until a breakpoint, a Pause request, a fault, or ctx is done.
// A breakpoint at the starting PC stops Run before anything executes, unless
// the previous Run stopped on it there; resuming after a hit moves past it.
func (s *Session) Run(ctx context.Context) (StopReason, error) {
	return s.run(ctx, false)
}

// RunFrame is Run that also stops once the next frame has been published, or
// after one frame's worth of cycles while the LCD is off and nothing is.
func (s *Session) RunFrame(ctx context.Context) (StopReason, error) {
	return s.run(ctx, true)
}

func (s *Session) run(ctx context.Context, untilFrame bool) (StopReason, error) {
	done := ctx.Done()
	frames := s.FrameCount()
	start := s.cpu.Cycles()
	exempt := s.resuming && s.cpu.PC() == s.resumePC

	for first := true; ; first = false {
		if s.paused.CompareAndSwap(true, false) {
			return StopPaused, nil
		}

		select {
		case <-done:
			return StopCanceled, ctx.Err()
		default:
		}

		if !(first && exempt) && s.checkBreakpoint() {
			return StopBreakpoint, nil
		}

		if _, err := s.Step(); err != nil {
			return StopFault, err
		}

		if untilFrame && (s.FrameCount() != frames || s.cpu.Cycles()-start >= timing.CyclesPerFrame) {
			return StopFrame, nil
		}
	}
}

// checkBreakpoint reports whether the instruction about to be fetched is a
// breakpoint. A halted CPU fetches nothing and so never matches.
func (s *Session) checkBreakpoint() bool {
	if s.breakpoints.Empty() || s.cpu.Halted() || s.cpu.Stopped() {
		return false
	}

	pc := s.cpu.PC()
	hit, ok := s.breakpoints.Match(pc, s.bus.Peek(pc))
	if !ok {
		return false
	}

	s.lastHit = hit
	s.resumePC = pc
	s.resuming = true
	s.log.Debug("Breakpoint hit",
		"kind", hit.Kind.String(),
		"pc", fmt.Sprintf("0x%04X", hit.Address),
		"opcode", fmt.Sprintf("0x%02X", hit.Opcode),
	)
	return true
}

// Pause asks a running Run to return at the next instruction boundary. The
// request stays pending until some Run honors it.
func (s *Session) Pause() {
	s.paused.Store(true)
}
