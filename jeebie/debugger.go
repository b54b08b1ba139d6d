package jeebie

import (
	"github.com/valerio/jeebug/jeebie/bit"
	"github.com/valerio/jeebug/jeebie/cartridge"
	"github.com/valerio/jeebug/jeebie/cpu"
	"github.com/valerio/jeebug/jeebie/debug"
	"github.com/valerio/jeebug/jeebie/disasm"
	"github.com/valerio/jeebug/jeebie/memory"
	"github.com/valerio/jeebug/jeebie/video"
)

func (s *Session) SetBreakpoint(address uint16)   { s.breakpoints.Set(address) }
func (s *Session) ClearBreakpoint(address uint16) { s.breakpoints.Clear(address) }

// ToggleBreakpoint flips the breakpoint at address and reports whether it is
// now set.
func (s *Session) ToggleBreakpoint(address uint16) bool { return s.breakpoints.Toggle(address) }

func (s *Session) SetOpcodeBreakpoint(opcode uint8)   { s.breakpoints.SetOpcode(opcode) }
func (s *Session) ClearOpcodeBreakpoint(opcode uint8) { s.breakpoints.ClearOpcode(opcode) }

// Breakpoints returns the address breakpoints in ascending order.
func (s *Session) Breakpoints() []uint16 { return s.breakpoints.Addresses() }

// OpcodeBreakpoints returns the opcode breakpoints in ascending order.
func (s *Session) OpcodeBreakpoints() []uint8 { return s.breakpoints.Opcodes() }

// LastHit describes the breakpoint that last stopped Run.
func (s *Session) LastHit() debug.Hit { return s.lastHit }

// Registers returns a copy of the CPU registers.
func (s *Session) Registers() cpu.Registers { return s.cpu.Registers() }

// CallStack returns the tracked call frames, innermost last.
func (s *Session) CallStack() []cpu.CallFrame { return s.cpu.CallStack() }

// Peek reads memory without side effects and ignores DMA blocking.
func (s *Session) Peek(address uint16) byte { return s.bus.Peek(address) }

// SetButton presses or releases a joypad key.
func (s *Session) SetButton(button memory.Button, pressed bool) { s.bus.SetButton(button, pressed) }

// Disassemble decodes count instructions starting at address.
func (s *Session) Disassemble(address uint16, count int) []disasm.Line {
	return disasm.Range(s.bus, address, count)
}

// DisassembleAround decodes a window of instructions centered on pc.
func (s *Session) DisassembleAround(pc uint16, before, after int) []disasm.Line {
	return disasm.Around(s.bus, pc, before, after)
}

// HexDump renders length bytes from start as a hex dump.
func (s *Session) HexDump(start uint16, length int) string {
	return debug.HexDump(s.bus, start, length)
}

// OAM reports the sprite table and which entries the current line selects.
func (s *Session) OAM() *debug.OAMData {
	state := s.ppu.State()
	height := 8
	if bit.IsSet(2, state.LCDC) {
		height = 16
	}
	return debug.ExtractOAMData(s.ppu.Sprites(), int(state.LY), height)
}

// Snapshot captures the machine state for display.
func (s *Session) Snapshot() debug.Snapshot {
	return debug.Snapshot{
		CPU:       s.cpu.Registers(),
		IME:       s.cpu.IME(),
		Halted:    s.cpu.Halted(),
		Stopped:   s.cpu.Stopped(),
		Cycles:    s.cpu.Cycles(),
		IE:        s.irq.ReadIE(),
		IF:        s.irq.ReadIF(),
		PPU:       s.ppu.State(),
		Timer:     s.timer.State(),
		ROMBank:   s.bus.ROMBank(),
		RAMBank:   s.bus.RAMBank(),
		DMAActive: s.bus.DMAActive(),
		Frames:    s.FrameCount(),
		CallStack: s.cpu.CallStack(),
		Fault:     s.cpu.Fault(),
	}
}

// Frame copies the last completed frame into dst.
func (s *Session) Frame(dst *video.Frame) { s.ppu.FrameBuffer().CopyFront(dst) }

// FrameCount returns how many frames the PPU has completed.
func (s *Session) FrameCount() uint64 { return s.ppu.FrameBuffer().Swaps() }

// SerialOutput returns the bytes the program has sent over the link port
// since the last reset.
func (s *Session) SerialOutput() string { return s.serial.Transcript() }

// Cartridge returns the loaded cartridge.
func (s *Session) Cartridge() *cartridge.Cartridge { return s.cart }

// Regions returns the bus address map.
func (s *Session) Regions() []memory.Region { return s.bus.Regions() }
