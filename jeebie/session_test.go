package jeebie

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/cartridge"
	"github.com/valerio/jeebug/jeebie/cpu"
	"github.com/valerio/jeebug/jeebie/debug"
	"github.com/valerio/jeebug/jeebie/internal/testrom"
	"github.com/valerio/jeebug/jeebie/memory"
	"github.com/valerio/jeebug/jeebie/video"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func load(t *testing.T, opts ...testrom.Option) *Session {
	t.Helper()
	s, err := Load(testrom.Build(opts...), WithLogger(quietLogger()))
	require.NoError(t, err)
	return s
}

// loop is JR -2, an endless 12-cycle loop.
var loop = []byte{0x18, 0xFE}

func TestLoadPostBootState(t *testing.T) {
	s := load(t, testrom.WithEntry(loop...))

	regs := s.Registers()
	assert.Equal(t, uint16(0x01B0), regs.AF())
	assert.Equal(t, uint16(0x0013), regs.BC())
	assert.Equal(t, uint16(0x00D8), regs.DE())
	assert.Equal(t, uint16(0x014D), regs.HL())
	assert.Equal(t, uint16(0xFFFE), regs.SP)
	assert.Equal(t, uint16(0x0100), regs.PC)

	tests := []struct {
		name    string
		address uint16
		want    byte
	}{
		{"LCDC", addr.LCDC, 0x91},
		{"BGP", addr.BGP, 0xFC},
		{"OBP0", addr.OBP0, 0xFF},
		{"OBP1", addr.OBP1, 0xFF},
		{"NR52", addr.NR52, 0xF1},
		{"DIV", addr.DIV, 0xAB},
		{"IE", addr.IE, 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Peek(tt.address))
		})
	}

	snap := s.Snapshot()
	assert.Equal(t, video.OAMScan, snap.PPU.Mode)
	assert.Equal(t, byte(0), snap.PPU.LY)
	assert.Equal(t, 0, snap.PPU.Dot)
	assert.Equal(t, uint16(0xABCC), snap.Timer.Counter)
	assert.Empty(t, snap.PendingInterrupts())
	assert.NoError(t, snap.Fault)
}

func TestLoadErrors(t *testing.T) {
	t.Run("unsupported mapper", func(t *testing.T) {
		_, err := Load(testrom.Build(testrom.WithMapper(0xFC)), WithLogger(quietLogger()))
		assert.ErrorIs(t, err, cartridge.ErrUnsupportedMapper)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := Load(make([]byte, 0x100), WithLogger(quietLogger()))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(t.TempDir()+"/missing.gb", WithLogger(quietLogger()))
		assert.Error(t, err)
	})
}

func TestLoadLogsHeaderWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s, err := Load(testrom.Build(testrom.WithBadChecksum(), testrom.WithTitle("BROKEN")), WithLogger(logger))
	require.NoError(t, err)

	assert.Len(t, s.Cartridge().Warnings(), 1)
	assert.Contains(t, buf.String(), "Cartridge header problem")
	assert.Contains(t, buf.String(), "title=BROKEN")
}

func TestStepTicksComponents(t *testing.T) {
	s := load(t, testrom.WithEntry(0x00, 0x00))

	cycles, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, 4, cycles)

	snap := s.Snapshot()
	assert.Equal(t, uint64(4), snap.Cycles)
	assert.Equal(t, 4, snap.PPU.Dot)
	assert.Equal(t, uint16(0xABD0), snap.Timer.Counter)
}

func TestVBlankAfterVisibleLines(t *testing.T) {
	s := load(t, testrom.WithEntry(loop...))

	total := 0
	for total < 456*143 {
		n, err := s.Step()
		require.NoError(t, err)
		total += n
	}
	assert.Zero(t, s.FrameCount())
	assert.Empty(t, s.Snapshot().PendingInterrupts())

	for total < 456*144+12 {
		n, err := s.Step()
		require.NoError(t, err)
		total += n
	}
	snap := s.Snapshot()
	assert.Equal(t, uint64(1), s.FrameCount())
	assert.Equal(t, video.VBlank, snap.PPU.Mode)
	assert.NotZero(t, snap.IF&0x01)
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	// 0100: JP $0150
	// 0150: INC A
	// 0151: JP $0150
	s := load(t,
		testrom.WithEntry(0xC3, 0x50, 0x01),
		testrom.WithCode(0x150, 0x3C, 0xC3, 0x50, 0x01),
	)
	s.SetBreakpoint(0x0150)

	reason, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopBreakpoint, reason)
	assert.Equal(t, uint16(0x0150), s.Registers().PC)
	assert.Equal(t, byte(0x01), s.Registers().A, "INC A must not have run")
	assert.Equal(t, debug.Hit{Kind: debug.AddressHit, Address: 0x0150, Opcode: 0x3C}, s.LastHit())

	reason, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopBreakpoint, reason)
	assert.Equal(t, uint16(0x0150), s.Registers().PC)
	assert.Equal(t, byte(0x02), s.Registers().A)

	s.ClearBreakpoint(0x0150)
	assert.Empty(t, s.Breakpoints())
}

func TestRunStopsAtBreakpointOnEntry(t *testing.T) {
	// 0100: NOP; JR -3
	program := testrom.WithEntry(0x00, 0x18, 0xFD)

	t.Run("fresh run", func(t *testing.T) {
		s := load(t, program)
		s.SetBreakpoint(0x0100)

		reason, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StopBreakpoint, reason)
		assert.Equal(t, uint16(0x0100), s.Registers().PC)
		assert.Zero(t, s.Snapshot().Cycles)

		reason, err = s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StopBreakpoint, reason)
		assert.Equal(t, uint64(16), s.Snapshot().Cycles, "resuming runs the loop once")
	})

	t.Run("set after a step", func(t *testing.T) {
		s := load(t, program)
		_, err := s.Step()
		require.NoError(t, err)
		s.SetBreakpoint(0x0101)

		reason, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StopBreakpoint, reason)
		assert.Equal(t, uint16(0x0101), s.Registers().PC)
		assert.Equal(t, uint64(4), s.Snapshot().Cycles)
	})

	t.Run("reset forgets the last hit", func(t *testing.T) {
		s := load(t, program)
		s.SetBreakpoint(0x0100)

		_, err := s.Run(context.Background())
		require.NoError(t, err)
		require.NoError(t, s.Reset())

		reason, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StopBreakpoint, reason)
		assert.Zero(t, s.Snapshot().Cycles)
	})
}

func TestRunStopsAtOpcode(t *testing.T) {
	// 0100: NOP; NOP; INC A; JR -3
	s := load(t, testrom.WithEntry(0x00, 0x00, 0x3C, 0x18, 0xFD))
	s.SetOpcodeBreakpoint(0x3C)

	reason, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopBreakpoint, reason)
	assert.Equal(t, uint16(0x0102), s.Registers().PC)
	assert.Equal(t, debug.OpcodeHit, s.LastHit().Kind)
	assert.Equal(t, []uint8{0x3C}, s.OpcodeBreakpoints())

	s.ClearOpcodeBreakpoint(0x3C)
	assert.Empty(t, s.OpcodeBreakpoints())
}

func TestToggleBreakpoint(t *testing.T) {
	s := load(t)

	assert.True(t, s.ToggleBreakpoint(0x0200))
	assert.Equal(t, []uint16{0x0200}, s.Breakpoints())
	assert.False(t, s.ToggleBreakpoint(0x0200))
	assert.Empty(t, s.Breakpoints())
}

func TestRunPause(t *testing.T) {
	t.Run("from another goroutine", func(t *testing.T) {
		s := load(t, testrom.WithEntry(loop...))

		go func() {
			time.Sleep(10 * time.Millisecond)
			s.Pause()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		reason, err := s.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, StopPaused, reason)
	})

	t.Run("request is consumed", func(t *testing.T) {
		s := load(t, testrom.WithEntry(loop...))
		s.Pause()

		reason, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StopPaused, reason)
		assert.Zero(t, s.Snapshot().Cycles)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		reason, err = s.Run(ctx)
		assert.Equal(t, StopCanceled, reason)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotZero(t, s.Snapshot().Cycles)
	})
}

func TestRunCanceled(t *testing.T) {
	s := load(t, testrom.WithEntry(loop...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reason, err := s.Run(ctx)
	assert.Equal(t, StopCanceled, reason)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunFault(t *testing.T) {
	s := load(t, testrom.WithEntry(0x00, 0xD3))

	reason, err := s.Run(context.Background())
	assert.Equal(t, StopFault, reason)
	require.ErrorIs(t, err, cpu.ErrIllegalOpcode)

	var decodeErr *cpu.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, uint16(0x0101), decodeErr.Address)
	assert.Equal(t, uint8(0xD3), decodeErr.Opcode)

	_, err = s.Step()
	assert.ErrorIs(t, err, cpu.ErrIllegalOpcode, "fault is sticky")
	assert.Error(t, s.Snapshot().Fault)

	require.NoError(t, s.Reset())
	assert.NoError(t, s.Snapshot().Fault)
	assert.Equal(t, uint16(0x0100), s.Registers().PC)
}

func TestRunFrame(t *testing.T) {
	s := load(t, testrom.WithEntry(loop...))

	for want := uint64(1); want <= 3; want++ {
		reason, err := s.RunFrame(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StopFrame, reason)
		assert.Equal(t, want, s.FrameCount())
	}

	var frame video.Frame
	s.Frame(&frame)
	assert.Equal(t, video.Shade(0), frame.Pixel(0, 0))
}

func TestRunFrameWithLCDOff(t *testing.T) {
	// XOR A; LDH ($40),A; JR -2
	s := load(t, testrom.WithEntry(0xAF, 0xE0, 0x40, 0x18, 0xFE))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for want := uint64(1); want <= 2; want++ {
		reason, err := s.RunFrame(ctx)
		require.NoError(t, err)
		assert.Equal(t, StopFrame, reason)

		cycles := s.Snapshot().Cycles
		assert.GreaterOrEqual(t, cycles, want*70224)
		assert.Less(t, cycles, want*70224+24)
	}
	assert.Zero(t, s.FrameCount(), "no frame is published with the LCD off")
}

func TestBankSwitchThroughSession(t *testing.T) {
	// LD A,$05; LD ($2000),A
	s := load(t,
		testrom.WithMapper(0x01),
		testrom.WithROMSizeCode(2),
		testrom.WithBankMarkers(),
		testrom.WithEntry(0x3E, 0x05, 0xEA, 0x00, 0x20),
	)
	assert.Equal(t, byte(0x01), s.Peek(0x4000))

	for range 2 {
		_, err := s.Step()
		require.NoError(t, err)
	}

	assert.Equal(t, byte(0x05), s.Peek(0x4000))
	assert.Equal(t, 5, s.Snapshot().ROMBank)
}

func TestResetKeepsCartridgeRAM(t *testing.T) {
	// LD A,$0A; LD ($0000),A; LD A,$42; LD ($A000),A
	s := load(t,
		testrom.WithMapper(0x03),
		testrom.WithRAMSizeCode(2),
		testrom.WithEntry(0x3E, 0x0A, 0xEA, 0x00, 0x00, 0x3E, 0x42, 0xEA, 0x00, 0xA0),
	)

	for range 4 {
		_, err := s.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, byte(0x42), s.Peek(0xA000))

	require.NoError(t, s.Reset())
	assert.Equal(t, byte(0xFF), s.Peek(0xA000), "RAM is disabled after reset")
	assert.Equal(t, byte(0x42), s.Cartridge().RAM()[0])
}

func TestStopResetsDivider(t *testing.T) {
	s := load(t, testrom.WithEntry(0x10, 0x00))

	_, err := s.Step()
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.True(t, snap.Stopped)
	assert.Equal(t, byte(0), snap.Timer.DIV)
}

func TestDMABlocksCPUButNotPeek(t *testing.T) {
	// LD A,$C0; LDH ($46),A
	s := load(t, testrom.WithEntry(0x3E, 0xC0, 0xE0, 0x46))

	for range 2 {
		_, err := s.Step()
		require.NoError(t, err)
	}

	snap := s.Snapshot()
	assert.True(t, snap.DMAActive)
	assert.Equal(t, byte(0x3E), s.Peek(0x0100))
}

func TestSerialOutput(t *testing.T) {
	// LD A,'H'; LDH ($01),A; LD A,$81; LDH ($02),A
	s := load(t, testrom.WithEntry(0x3E, 'H', 0xE0, 0x01, 0x3E, 0x81, 0xE0, 0x02))

	for range 4 {
		_, err := s.Step()
		require.NoError(t, err)
	}

	assert.Equal(t, "H", s.SerialOutput())
	assert.NotZero(t, s.Snapshot().IF&0x08)

	require.NoError(t, s.Reset())
	assert.Empty(t, s.SerialOutput())
}

func TestSerialTiming(t *testing.T) {
	// LD A,'H'; LDH ($01),A; LD A,$81; LDH ($02),A; JR -2
	rom := testrom.Build(testrom.WithEntry(0x3E, 'H', 0xE0, 0x01, 0x3E, 0x81, 0xE0, 0x02, 0x18, 0xFE))
	s, err := Load(rom, WithLogger(quietLogger()), WithSerialTiming())
	require.NoError(t, err)

	for range 4 {
		_, err := s.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, "H", s.SerialOutput())
	assert.NotZero(t, s.Peek(addr.SC)&0x80, "transfer still in progress")
	assert.Zero(t, s.Snapshot().IF&0x08)

	for range 400 {
		_, err := s.Step()
		require.NoError(t, err)
	}
	assert.Zero(t, s.Peek(addr.SC)&0x80)
	assert.NotZero(t, s.Snapshot().IF&0x08)
	assert.Equal(t, byte(0xFF), s.Peek(addr.SB))
}

func TestSetButtonRequestsInterrupt(t *testing.T) {
	s := load(t)

	s.SetButton(memory.ButtonStart, true)
	assert.NotZero(t, s.Snapshot().IF&0x10)

	s.SetButton(memory.ButtonStart, false)
	assert.Equal(t, byte(0xCF), s.Peek(addr.P1)&0xCF)
}

func TestInspectionDoesNotMutate(t *testing.T) {
	s := load(t, testrom.WithEntry(0x3E, 0x42, 0x3C, 0x18, 0xFD))

	before := s.Snapshot()
	lines := s.Disassemble(0x0100, 3)
	_ = s.DisassembleAround(0x0102, 2, 2)
	_ = s.HexDump(0x0100, 32)
	_ = s.OAM()
	_ = s.Peek(addr.LY)

	require.Len(t, lines, 3)
	assert.Equal(t, "LD A,$42", lines[0].Text())
	assert.Equal(t, "INC A", lines[1].Text())
	assert.Equal(t, "JR $0102", lines[2].Text())
	assert.Equal(t, before, s.Snapshot())
}

func TestSessionRegions(t *testing.T) {
	s := load(t)

	regions := s.Regions()
	require.NotEmpty(t, regions)
	assert.Equal(t, "ROM0", regions[0].Name)
	assert.Equal(t, "IE", regions[len(regions)-1].Name)
}
