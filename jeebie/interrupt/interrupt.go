// Package interrupt holds the IE/IF registers and resolves interrupt priority.
package interrupt

import "fmt"

// Kind identifies one of the five interrupt sources. The value is the IF/IE bit index,
// which is also the priority (0 is served first).
type Kind uint8

const (
	VBlank Kind = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// count of interrupt sources
const count = 5

const (
	baseVector uint16 = 0x40
	sourceMask uint8  = 0x1F
	// unused IF bits always read back as 1
	ifUnusedBits uint8 = 0xE0
)

// Vector returns the dispatch address: 0x40, 0x48, 0x50, 0x58, 0x60.
func (k Kind) Vector() uint16 {
	return baseVector + uint16(k)*8
}

// Mask returns the IE/IF bit for this source.
func (k Kind) Mask() uint8 {
	return 1 << k
}

func (k Kind) String() string {
	switch k {
	case VBlank:
		return "VBlank"
	case LCDStat:
		return "STAT"
	case Timer:
		return "Timer"
	case Serial:
		return "Serial"
	case Joypad:
		return "Joypad"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Requester is implemented by anything that can raise an interrupt line.
// Timer and PPU receive one on each tick instead of holding a reference.
type Requester interface {
	Request(kind Kind)
}

// Controller is the IE/IF register pair. It has no behavior of its own and is
// polled by the CPU once per step.
type Controller struct {
	enable uint8
	flag   uint8
}

// New returns a controller with nothing enabled or requested.
func New() *Controller {
	return &Controller{}
}

// Reset clears both registers.
func (c *Controller) Reset() {
	c.enable = 0
	c.flag = 0
}

// Request sets the IF bit for kind.
func (c *Controller) Request(kind Kind) {
	c.flag |= kind.Mask()
}

// Acknowledge clears the IF bit for kind, done by the CPU on dispatch.
func (c *Controller) Acknowledge(kind Kind) {
	c.flag &^= kind.Mask()
}

// Pending returns the highest priority interrupt that is both enabled and requested.
func (c *Controller) Pending() (Kind, bool) {
	active := c.Active()
	if active == 0 {
		return 0, false
	}
	for k := range Kind(count) {
		if active&k.Mask() != 0 {
			return k, true
		}
	}
	return 0, false
}

// Active returns IE & IF restricted to the five sources.
func (c *Controller) Active() uint8 {
	return c.enable & c.flag & sourceMask
}

// ReadIF returns IF as the CPU sees it.
func (c *Controller) ReadIF() uint8 { return c.flag | ifUnusedBits }

// WriteIF stores the five writable IF bits.
func (c *Controller) WriteIF(value uint8) { c.flag = value & sourceMask }

// ReadIE returns IE. All eight bits are stored.
func (c *Controller) ReadIE() uint8 { return c.enable }

// WriteIE stores IE.
func (c *Controller) WriteIE(value uint8) { c.enable = value }
