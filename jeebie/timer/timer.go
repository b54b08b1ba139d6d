// Package timer implements the DIV/TIMA/TMA/TAC timer block.
package timer

import (
	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/bit"
	"github.com/valerio/jeebug/jeebie/interrupt"
)

// tacLookup maps TAC input clock select (bits 1–0) to the bit position
// of the 16‑bit internal divider used as the timer's clock source.
// TIMA increments on falling edges of this bit while TAC bit 2 is set.
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint16{9, 3, 5, 7}

// reloadDelay is the number of clock cycles TIMA stays at 0x00 after an overflow.
const reloadDelay = 4

const (
	tacEnableBit = 2
	tacMask      = 0x07
	tacUnused    = 0xF8
)

// State is a read-only view of the timer registers.
type State struct {
	Counter uint16
	DIV     byte
	TIMA    byte
	TMA     byte
	TAC     byte
}

// Timer encapsulates the divider and the programmable counter.
type Timer struct {
	counter   uint16 // DIV is the upper 8 bits
	reloading int    // cycles left before TIMA <- TMA
	tima      byte
	tma       byte
	tac       byte
}

// New returns a timer with a zeroed divider.
func New() *Timer {
	return &Timer{}
}

// Reset clears all registers and seeds the divider.
func (t *Timer) Reset(seed uint16) {
	*t = Timer{counter: seed}
}

// Tick advances the divider one clock cycle at a time so that every falling edge
// of the selected bit is seen.
func (t *Timer) Tick(cycles int, irq interrupt.Requester) {
	for range cycles {
		if t.reloading > 0 {
			t.reloading--
			if t.reloading == 0 {
				t.tima = t.tma
				irq.Request(interrupt.Timer)
			}
		}
		t.setCounter(t.counter + 1)
	}
}

// signal is the AND of the enable bit and the selected divider bit.
func (t *Timer) signal() bool {
	return bit.IsSet(tacEnableBit, t.tac) && bit.IsSet16(tacLookup[t.tac&0x03], t.counter)
}

func (t *Timer) setCounter(value uint16) {
	before := t.signal()
	t.counter = value
	if before && !t.signal() {
		t.increment()
	}
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.reloading = reloadDelay
	}
}

// Read returns the register at address; unknown addresses read 0xFF.
func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return bit.High(t.counter)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | tacUnused
	default:
		return 0xFF
	}
}

// Write stores a register. A DIV write zeroes the whole divider and a TAC write
// that drops the timer signal counts as a falling edge.
func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.setCounter(0)
	case addr.TIMA:
		// writing during the reload window cancels the reload and its interrupt
		t.reloading = 0
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		before := t.signal()
		t.tac = value & tacMask
		if before && !t.signal() {
			t.increment()
		}
	}
}

// State returns the register values without side effects.
func (t *Timer) State() State {
	return State{
		Counter: t.counter,
		DIV:     bit.High(t.counter),
		TIMA:    t.tima,
		TMA:     t.tma,
		TAC:     t.tac | tacUnused,
	}
}
