// Package cpu implements the Sharp LR35902 instruction engine.
package cpu

import (
	"errors"
	"fmt"

	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/bit"
	"github.com/valerio/jeebug/jeebie/interrupt"
)

// Bus is the CPU's view of the address space.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Flag is one of the 4 flags held in the high nibble of F.
type Flag uint8

const (
	FlagZ Flag = 0x80
	FlagN Flag = 0x40
	FlagH Flag = 0x20
	FlagC Flag = 0x10
)

const (
	// DefaultCallStackDepth bounds the tracked call frames.
	DefaultCallStackDepth = 64

	dispatchCycles = 20
	idleCycles     = 4
)

// ErrIllegalOpcode is the sentinel wrapped by every DecodeError.
var ErrIllegalOpcode = errors.New("illegal opcode")

// DecodeError reports an undefined opcode. The CPU stays faulted until Reset.
type DecodeError struct {
	Address uint16
	Opcode  byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("illegal opcode 0x%02X at 0x%04X", e.Opcode, e.Address)
}

func (e *DecodeError) Unwrap() error { return ErrIllegalOpcode }

// CallFrame is one entry of the tracked call stack.
type CallFrame struct {
	Site      uint16 // address of the CALL/RST, or the interrupted PC
	Target    uint16
	Return    uint16
	Interrupt bool
}

// Registers is a copy of the register file.
type Registers struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
}

func (r Registers) AF() uint16 { return bit.Combine(r.A, r.F) }
func (r Registers) BC() uint16 { return bit.Combine(r.B, r.C) }
func (r Registers) DE() uint16 { return bit.Combine(r.D, r.E) }
func (r Registers) HL() uint16 { return bit.Combine(r.H, r.L) }

// Flag reports whether f is set in F.
func (r Registers) Flag(f Flag) bool { return r.F&uint8(f) != 0 }

// FlagString renders F as "ZNHC", with '-' for clear flags.
func (r Registers) FlagString() string {
	out := []byte("----")
	for i, f := range []Flag{FlagZ, FlagN, FlagH, FlagC} {
		if r.Flag(f) {
			out[i] = "ZNHC"[i]
		}
	}
	return string(out)
}

// CPU holds the register file and the execution state. It reaches memory
// only through Bus and interrupts only through the controller.
type CPU struct {
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	ime       bool
	eiPending bool // EI takes effect after the next instruction
	halted    bool
	stopped   bool

	// haltBug makes the next opcode fetch skip the PC increment.
	haltBug bool

	fault  error
	cycles uint64

	// address of the instruction being executed
	instrPC uint16

	calls    []CallFrame
	maxCalls int

	bus Bus
	irq *interrupt.Controller
}

// New returns a CPU in the DMG post-boot state.
func New(bus Bus, irq *interrupt.Controller) *CPU {
	c := &CPU{
		bus:      bus,
		irq:      irq,
		maxCalls: DefaultCallStackDepth,
	}
	c.Reset()
	return c
}

// Reset loads the register values the boot ROM leaves behind and clears
// any fault.
func (c *CPU) Reset() {
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100

	c.ime = false
	c.eiPending = false
	c.halted = false
	c.stopped = false
	c.haltBug = false
	c.fault = nil
	c.cycles = 0
	c.instrPC = c.pc
	c.calls = c.calls[:0]
}

// SetCallStackDepth changes the number of tracked frames. Values below 1 disable tracking.
func (c *CPU) SetCallStackDepth(depth int) {
	c.maxCalls = max(depth, 0)
	if len(c.calls) > c.maxCalls {
		c.calls = c.calls[len(c.calls)-c.maxCalls:]
	}
}

// Step runs one unit of CPU work and returns the clock cycles it took:
// an interrupt dispatch, an idle slot while halted or stopped, or one
// instruction.
func (c *CPU) Step() (int, error) {
	if c.fault != nil {
		return 0, c.fault
	}

	if cycles, ok := c.dispatchInterrupt(); ok {
		c.cycles += uint64(cycles)
		return cycles, nil
	}

	if c.stopped {
		if c.irq.ReadIF()&interrupt.Joypad.Mask() == 0 {
			c.cycles += idleCycles
			return idleCycles, nil
		}
		c.stopped = false
	}

	if c.halted {
		// any pending interrupt wakes the CPU, even with IME clear
		if c.irq.Active() == 0 {
			c.cycles += idleCycles
			return idleCycles, nil
		}
		c.halted = false
	}

	enableAfter := c.eiPending
	c.instrPC = c.pc

	in := &primary[c.fetch()]
	if in.Prefixed {
		in = &prefixed[c.fetch()]
	}
	if in.illegal {
		c.fault = &DecodeError{Address: c.instrPC, Opcode: in.Opcode}
		return 0, c.fault
	}

	cycles := in.Cycles
	if in.branch != nil {
		if in.branch(c) {
			cycles = in.Taken
		}
	} else {
		in.run(c)
	}

	if enableAfter && c.eiPending {
		c.eiPending = false
		c.ime = true
	}

	c.cycles += uint64(cycles)
	return cycles, nil
}

// dispatchInterrupt jumps to the vector of the highest priority pending
// interrupt when IME is set.
func (c *CPU) dispatchInterrupt() (int, bool) {
	if !c.ime {
		return 0, false
	}
	kind, ok := c.irq.Pending()
	if !ok {
		return 0, false
	}

	c.ime = false
	c.eiPending = false
	c.halted = false
	c.stopped = false
	c.irq.Acknowledge(kind)

	c.pushFrame(CallFrame{Site: c.pc, Target: kind.Vector(), Return: c.pc, Interrupt: true})
	c.push(c.pc)
	c.pc = kind.Vector()
	return dispatchCycles, true
}

// fetch reads the byte at PC and advances it, except right after a HALT
// bug trigger where PC stays put once.
func (c *CPU) fetch() uint8 {
	value := c.bus.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
	}
	return value
}

func (c *CPU) fetch16() uint16 {
	low := c.fetch()
	high := c.fetch()
	return bit.Combine(high, low)
}

func (c *CPU) push(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) pop() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) call(target uint16) {
	c.pushFrame(CallFrame{Site: c.instrPC, Target: target, Return: c.pc})
	c.push(c.pc)
	c.pc = target
}

func (c *CPU) ret() {
	c.pc = c.pop()
	if len(c.calls) > 0 {
		c.calls = c.calls[:len(c.calls)-1]
	}
}

func (c *CPU) pushFrame(frame CallFrame) {
	if c.maxCalls == 0 {
		return
	}
	if len(c.calls) == c.maxCalls {
		copy(c.calls, c.calls[1:])
		c.calls = c.calls[:len(c.calls)-1]
	}
	c.calls = append(c.calls, frame)
}

// halt idles until an interrupt is pending. With IME clear and one already
// pending, the HALT bug applies instead. Right after EI the interrupt is
// served at once and returns to the HALT itself.
func (c *CPU) halt() {
	if !c.ime && c.irq.Active() != 0 {
		if c.eiPending {
			c.pc = c.instrPC
			return
		}
		c.haltBug = true
		return
	}
	c.halted = true
}

func (c *CPU) stop() {
	c.fetch()
	c.stopped = true
	c.bus.Write(addr.DIV, 0)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c *CPU) hl() uint16 { return bit.Combine(c.h, c.l) }

// Registers returns a copy of the register file.
func (c *CPU) Registers() Registers {
	return Registers{
		A: c.a, F: c.f, B: c.b, C: c.c, D: c.d, E: c.e, H: c.h, L: c.l,
		SP: c.sp, PC: c.pc,
	}
}

// PC returns the address of the next instruction.
func (c *CPU) PC() uint16 { return c.pc }

// IME reports the interrupt master enable.
func (c *CPU) IME() bool { return c.ime }

// Halted reports whether the CPU is waiting in HALT.
func (c *CPU) Halted() bool { return c.halted }

// Stopped reports whether the CPU is waiting in STOP.
func (c *CPU) Stopped() bool { return c.stopped }

// Cycles returns the clock cycles run since Reset.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Fault returns the decode error that stopped the CPU, if any.
func (c *CPU) Fault() error { return c.fault }

// CallStack returns the tracked frames, innermost last.
func (c *CPU) CallStack() []CallFrame {
	return append([]CallFrame(nil), c.calls...)
}
