// Package memory routes the 16 bit address space to the cartridge, RAM, PPU,
// timer and I/O registers, and implements the cartridge bank controllers.
package memory

import (
	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/interrupt"
)

// dmaCycles is how long an OAM DMA keeps the bus busy: 160 machine cycles.
const dmaCycles = 160 * 4

const (
	oamSize = 0xA0
	hramLen = int(addr.HRAMEnd-addr.HRAMStart) + 1
	ioLen   = int(addr.IOEnd-addr.IOStart) + 1
)

// PPU is the video side of the bus: VRAM, OAM and the LCD registers.
type PPU interface {
	ReadVRAM(address uint16) byte
	WriteVRAM(address uint16, value byte)
	ReadOAM(address uint16) byte
	// WriteOAM is a CPU write and may be dropped depending on the PPU mode.
	WriteOAM(address uint16, value byte)
	// WriteOAMDMA stores a DMA byte regardless of the PPU mode.
	WriteOAMDMA(index int, value byte)
	ReadRegister(address uint16) byte
	WriteRegister(address uint16, value byte)
}

// Registers is a block of memory mapped registers, such as the timer.
type Registers interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Serial is the link port behind SB and SC. Transfers finish on Tick.
type Serial interface {
	Registers
	Tick(cycles int)
}

// RAM is the console-side memory the bus routes to. It is owned by the
// session and borrowed by the bus.
type RAM struct {
	WRAM [0x2000]byte
	HRAM [hramLen]byte
	// IO backs registers that are only stored, such as audio and serial.
	IO [ioLen]byte
}

// Region is one entry of the bus dispatch table.
type Region struct {
	Name  string
	Start uint16
	End   uint16
}

type handler struct {
	Region
	read  func(address uint16) byte
	write func(address uint16, value byte)
}

// Bus is the CPU's view of memory. Lookups walk an ordered table of
// address ranges; I/O registers are a second table inside FF00-FF7F.
type Bus struct {
	mbc    MBC
	ram    *RAM
	ppu    PPU
	timer  Registers
	irq    *interrupt.Controller
	joypad *Joypad
	serial Serial

	regions []handler
	io      []handler

	dmaRemaining int
	dmaSource    byte
}

// Config lists the components the bus routes to.
type Config struct {
	MBC    MBC
	RAM    *RAM
	PPU    PPU
	Timer  Registers
	IRQ    *interrupt.Controller
	Joypad *Joypad
	// Serial is optional; without one SB and SC are plain storage.
	Serial Serial
}

// NewBus wires the dispatch tables for the given components.
func NewBus(cfg Config) *Bus {
	b := &Bus{
		mbc:    cfg.MBC,
		ram:    cfg.RAM,
		ppu:    cfg.PPU,
		timer:  cfg.Timer,
		irq:    cfg.IRQ,
		joypad: cfg.Joypad,
		serial: cfg.Serial,
	}

	readSB, writeSB := b.readStored, b.writeStored
	readSC, writeSC := b.readSerialControl, b.writeStored
	if b.serial != nil {
		readSB, writeSB = b.serial.Read, b.serial.Write
		readSC, writeSC = b.serial.Read, b.serial.Write
	}

	b.regions = []handler{
		{Region{"ROM0", addr.ROM0Start, addr.ROM0End}, b.mbc.Read, b.mbc.Write},
		{Region{"ROMX", addr.ROMXStart, addr.ROMXEnd}, b.mbc.Read, b.mbc.Write},
		{Region{"VRAM", addr.VRAMStart, addr.VRAMEnd}, b.ppu.ReadVRAM, b.ppu.WriteVRAM},
		{Region{"SRAM", addr.ExtRAMStart, addr.ExtRAMEnd}, b.mbc.Read, b.mbc.Write},
		{Region{"WRAM", addr.WRAMStart, addr.WRAMEnd}, b.readWRAM, b.writeWRAM},
		{Region{"ECHO", addr.EchoStart, addr.EchoEnd}, b.readEcho, b.writeEcho},
		{Region{"OAM", addr.OAMStart, addr.OAMEnd}, b.ppu.ReadOAM, b.ppu.WriteOAM},
		{Region{"UNUSABLE", addr.UnusableStart, addr.UnusableEnd}, readUnmapped, writeIgnored},
		{Region{"IO", addr.IOStart, addr.IOEnd}, b.readIO, b.writeIO},
		{Region{"HRAM", addr.HRAMStart, addr.HRAMEnd}, b.readHRAM, b.writeHRAM},
		{Region{"IE", addr.IE, addr.IE}, b.readIE, b.writeIE},
	}

	b.io = []handler{
		{Region{"P1", addr.P1, addr.P1}, b.readJoypad, b.writeJoypad},
		{Region{"SB", addr.SB, addr.SB}, readSB, writeSB},
		{Region{"SC", addr.SC, addr.SC}, readSC, writeSC},
		{Region{"TIMER", addr.DIV, addr.TAC}, b.timer.Read, b.timer.Write},
		{Region{"IF", addr.IF, addr.IF}, b.readIF, b.writeIF},
		{Region{"AUDIO", addr.AudioStart, addr.AudioEnd}, b.readStored, b.writeStored},
		{Region{"LCD", addr.LCDC, addr.LYC}, b.ppu.ReadRegister, b.ppu.WriteRegister},
		{Region{"DMA", addr.DMA, addr.DMA}, b.readDMA, b.writeDMA},
		{Region{"PALETTE", addr.BGP, addr.WX}, b.ppu.ReadRegister, b.ppu.WriteRegister},
		{Region{"BOOT", addr.BootOff, addr.BootOff}, b.readStored, b.writeStored},
	}

	return b
}

// Regions returns the address map in dispatch order.
func (b *Bus) Regions() []Region {
	regions := make([]Region, len(b.regions))
	for i, h := range b.regions {
		regions[i] = h.Region
	}
	return regions
}

// RegionOf returns the name of the region containing address.
func (b *Bus) RegionOf(address uint16) string {
	if h := lookup(b.regions, address); h != nil {
		return h.Name
	}
	return ""
}

func lookup(table []handler, address uint16) *handler {
	for i := range table {
		if address >= table[i].Start && address <= table[i].End {
			return &table[i]
		}
	}
	return nil
}

// blocked reports whether a CPU access is locked out by a running OAM DMA.
// Only I/O, HRAM and IE stay reachable.
func (b *Bus) blocked(address uint16) bool {
	return b.dmaRemaining > 0 && address < addr.IOStart
}

// Read is a CPU read.
func (b *Bus) Read(address uint16) byte {
	if b.blocked(address) {
		return 0xFF
	}
	return b.Peek(address)
}

// Peek reads without DMA gating and without side effects, for debuggers.
func (b *Bus) Peek(address uint16) byte {
	if h := lookup(b.regions, address); h != nil {
		return h.read(address)
	}
	return 0xFF
}

// Write is a CPU write.
func (b *Bus) Write(address uint16, value byte) {
	if b.blocked(address) {
		return
	}
	if h := lookup(b.regions, address); h != nil {
		h.write(address, value)
	}
}

// Tick advances the DMA busy window and any serial transfer.
func (b *Bus) Tick(cycles int) {
	if b.serial != nil {
		b.serial.Tick(cycles)
	}
	if b.dmaRemaining > 0 {
		b.dmaRemaining -= cycles
		if b.dmaRemaining < 0 {
			b.dmaRemaining = 0
		}
	}
}

// DMAActive reports whether an OAM DMA is still holding the bus.
func (b *Bus) DMAActive() bool { return b.dmaRemaining > 0 }

// ROMBank and RAMBank report the current MBC mapping.
func (b *Bus) ROMBank() int { return b.mbc.ROMBank() }
func (b *Bus) RAMBank() int { return b.mbc.RAMBank() }

func readUnmapped(uint16) byte { return 0xFF }

func writeIgnored(uint16, byte) {}

func (b *Bus) readWRAM(address uint16) byte { return b.ram.WRAM[address-addr.WRAMStart] }

func (b *Bus) writeWRAM(address uint16, value byte) { b.ram.WRAM[address-addr.WRAMStart] = value }

// echo RAM mirrors C000-DDFF
func (b *Bus) readEcho(address uint16) byte { return b.ram.WRAM[address-addr.EchoStart] }

func (b *Bus) writeEcho(address uint16, value byte) { b.ram.WRAM[address-addr.EchoStart] = value }

func (b *Bus) readHRAM(address uint16) byte { return b.ram.HRAM[address-addr.HRAMStart] }

func (b *Bus) writeHRAM(address uint16, value byte) { b.ram.HRAM[address-addr.HRAMStart] = value }

func (b *Bus) readIE(uint16) byte { return b.irq.ReadIE() }

func (b *Bus) writeIE(_ uint16, value byte) { b.irq.WriteIE(value) }

func (b *Bus) readIO(address uint16) byte {
	if h := lookup(b.io, address); h != nil {
		return h.read(address)
	}
	return 0xFF
}

func (b *Bus) writeIO(address uint16, value byte) {
	if h := lookup(b.io, address); h != nil {
		h.write(address, value)
	}
}

func (b *Bus) readStored(address uint16) byte { return b.ram.IO[address-addr.IOStart] }

func (b *Bus) writeStored(address uint16, value byte) { b.ram.IO[address-addr.IOStart] = value }

func (b *Bus) readSerialControl(address uint16) byte { return b.readStored(address) | 0x7E }

func (b *Bus) readIF(uint16) byte { return b.irq.ReadIF() }

func (b *Bus) writeIF(_ uint16, value byte) { b.irq.WriteIF(value) }

func (b *Bus) readJoypad(uint16) byte { return b.joypad.Read() }

func (b *Bus) writeJoypad(_ uint16, value byte) { b.joypad.Write(value) }

// SetButton updates the joypad and raises the joypad interrupt on a press.
func (b *Bus) SetButton(button Button, pressed bool) {
	if b.joypad.Set(button, pressed) {
		b.irq.Request(interrupt.Joypad)
	}
}

func (b *Bus) readDMA(uint16) byte { return b.dmaSource }

// writeDMA copies 160 bytes from value<<8 into OAM and starts the busy window.
func (b *Bus) writeDMA(_ uint16, value byte) {
	b.dmaSource = value
	source := uint16(value) << 8
	for i := range oamSize {
		b.ppu.WriteOAMDMA(i, b.dmaRead(source+uint16(i)))
	}
	b.dmaRemaining = dmaCycles
}

// dmaRead maps sources above DFFF onto work RAM, as the DMA unit does.
func (b *Bus) dmaRead(address uint16) byte {
	if address >= addr.EchoStart {
		return b.ram.WRAM[(address-addr.EchoStart)&0x1FFF]
	}
	return b.Peek(address)
}
