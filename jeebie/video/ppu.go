// Package video implements the DMG picture processing unit.
package video

import (
	"fmt"

	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/bit"
	"github.com/valerio/jeebug/jeebie/interrupt"
)

// Mode is the PPU state reported in STAT bits 1-0.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	Transfer
)

func (m Mode) String() string {
	switch m {
	case HBlank:
		return "HBlank"
	case VBlank:
		return "VBlank"
	case OAMScan:
		return "OAM"
	case Transfer:
		return "Transfer"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Scanline timing, in dots. Pixel transfer is fixed at its minimum length.
const (
	dotsPerLine  = 456
	oamScanDots  = 80
	transferDots = 172
	visibleLines = 144
	lastLine     = 153
)

// LCDC bits
const (
	lcdcBGEnable     = 0
	lcdcObjEnable    = 1
	lcdcObjSize      = 2
	lcdcBGTileMap    = 3
	lcdcTileData     = 4
	lcdcWindowEnable = 5
	lcdcWindowMap    = 6
	lcdcEnable       = 7
)

// STAT bits
const (
	statCoincidence = 2
	statHBlankIRQ   = 3
	statVBlankIRQ   = 4
	statOAMIRQ      = 5
	statLYCIRQ      = 6

	statWritable = 0x78
	statUnused   = 0x80
)

const (
	vramSize = 0x2000
	oamSize  = 0xA0
)

// State is a read-only view of the PPU for inspectors.
type State struct {
	Mode       Mode
	Dot        int
	LY         byte
	LYC        byte
	LCDC       byte
	STAT       byte
	SCX, SCY   byte
	WX, WY     byte
	BGP        byte
	OBP0, OBP1 byte
	WindowLine int
}

// PPU is driven one dot at a time by Tick. It owns VRAM, OAM and the LCD registers.
type PPU struct {
	vram [vramSize]byte
	oam  [oamSize]byte

	lcdc byte
	stat byte
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	mode       Mode
	dot        int
	windowLine int
	statLine   bool

	frames   FrameBuffer
	scanner  spriteScanner
	priority SpritePriorityBuffer
	bgColor  [FramebufferWidth]uint8
}

// New returns a PPU with the LCD off.
func New() *PPU {
	return &PPU{}
}

// Reset clears memory and registers and turns the LCD off.
func (p *PPU) Reset() {
	p.vram = [vramSize]byte{}
	p.oam = [oamSize]byte{}
	p.lcdc, p.stat, p.scy, p.scx = 0, 0, 0, 0
	p.ly, p.lyc, p.bgp, p.obp0, p.obp1, p.wy, p.wx = 0, 0, 0, 0, 0, 0, 0
	p.mode = HBlank
	p.dot = 0
	p.windowLine = 0
	p.statLine = false
	p.frames.Clear()
}

func (p *PPU) enabled() bool {
	return bit.IsSet(lcdcEnable, p.lcdc)
}

// Tick advances the PPU by the given number of dots.
func (p *PPU) Tick(cycles int, irq interrupt.Requester) {
	if !p.enabled() {
		return
	}
	for range cycles {
		p.step(irq)
	}
}

func (p *PPU) step(irq interrupt.Requester) {
	p.dot++

	switch {
	case p.mode == OAMScan && p.dot == oamScanDots:
		p.mode = Transfer
	case p.mode == Transfer && p.dot == oamScanDots+transferDots:
		p.renderScanline()
		p.mode = HBlank
	case p.dot == dotsPerLine:
		p.dot = 0
		p.ly++
		switch {
		case p.ly == visibleLines:
			p.mode = VBlank
			irq.Request(interrupt.VBlank)
			p.frames.Swap()
		case p.ly > lastLine:
			p.ly = 0
			p.windowLine = 0
			p.mode = OAMScan
		case p.ly < visibleLines:
			p.mode = OAMScan
		}
	}

	p.updateStatLine(irq)
}

// updateStatLine raises the STAT interrupt on a rising edge of the OR of all
// enabled STAT sources.
func (p *PPU) updateStatLine(irq interrupt.Requester) {
	line := (bit.IsSet(statHBlankIRQ, p.stat) && p.mode == HBlank) ||
		(bit.IsSet(statVBlankIRQ, p.stat) && p.mode == VBlank) ||
		(bit.IsSet(statOAMIRQ, p.stat) && p.mode == OAMScan) ||
		(bit.IsSet(statLYCIRQ, p.stat) && p.ly == p.lyc)

	if line && !p.statLine {
		irq.Request(interrupt.LCDStat)
	}
	p.statLine = line
}

// Mode returns the current PPU mode.
func (p *PPU) Mode() Mode { return p.mode }

// LY returns the current scanline.
func (p *PPU) LY() byte { return p.ly }

// FrameBuffer returns the double buffered output.
func (p *PPU) FrameBuffer() *FrameBuffer { return &p.frames }

// State returns the registers and timing counters.
func (p *PPU) State() State {
	return State{
		Mode:       p.mode,
		Dot:        p.dot,
		LY:         p.ly,
		LYC:        p.lyc,
		LCDC:       p.lcdc,
		STAT:       p.readSTAT(),
		SCX:        p.scx,
		SCY:        p.scy,
		WX:         p.wx,
		WY:         p.wy,
		BGP:        p.bgp,
		OBP0:       p.obp0,
		OBP1:       p.obp1,
		WindowLine: p.windowLine,
	}
}

func (p *PPU) ReadVRAM(address uint16) byte {
	return p.vram[address-addr.VRAMStart]
}

func (p *PPU) WriteVRAM(address uint16, value byte) {
	p.vram[address-addr.VRAMStart] = value
}

func (p *PPU) ReadOAM(address uint16) byte {
	return p.oam[address-addr.OAMStart]
}

// WriteOAM drops CPU writes while the PPU is transferring pixels.
func (p *PPU) WriteOAM(address uint16, value byte) {
	if p.enabled() && p.mode == Transfer {
		return
	}
	p.oam[address-addr.OAMStart] = value
}

// WriteOAMDMA stores a byte copied by OAM DMA.
func (p *PPU) WriteOAMDMA(index int, value byte) {
	p.oam[index] = value
}

func (p *PPU) readSTAT() byte {
	value := statUnused | p.stat
	if p.ly == p.lyc {
		value = bit.Set(statCoincidence, value)
	}
	if p.enabled() {
		value |= byte(p.mode)
	}
	return value
}

// ReadRegister reads one of the LCD registers at FF40-FF4B.
func (p *PPU) ReadRegister(address uint16) byte {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		return p.readSTAT()
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	}
	return 0xFF
}

// WriteRegister writes one of the LCD registers. LY is read-only.
func (p *PPU) WriteRegister(address uint16, value byte) {
	switch address {
	case addr.LCDC:
		p.writeLCDC(value)
	case addr.STAT:
		p.stat = value & statWritable
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LYC:
		p.lyc = value
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	}
}

func (p *PPU) writeLCDC(value byte) {
	wasOn := p.enabled()
	p.lcdc = value

	switch {
	case wasOn && !p.enabled():
		p.ly = 0
		p.dot = 0
		p.mode = HBlank
		p.statLine = false
	case !wasOn && p.enabled():
		p.ly = 0
		p.dot = 0
		p.windowLine = 0
		p.mode = OAMScan
	}
}
