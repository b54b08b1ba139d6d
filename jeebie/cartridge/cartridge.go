// Package cartridge parses Game Boy ROM images and exposes their ROM and RAM.
package cartridge

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrUnsupportedMapper is returned for cartridge types without an implemented MBC.
	ErrUnsupportedMapper = errors.New("unsupported cartridge mapper")
	// ErrTruncatedROM is returned when the image is shorter than its header declares.
	ErrTruncatedROM = errors.New("truncated ROM image")
)

// ChecksumWarning reports a header checksum mismatch. Real hardware refuses to boot
// such a cartridge, emulators load it anyway.
type ChecksumWarning struct {
	Expected byte
	Actual   byte
}

func (w ChecksumWarning) Error() string {
	return fmt.Sprintf("header checksum mismatch: header says 0x%02X, computed 0x%02X", w.Expected, w.Actual)
}

// Mapper identifies the bank controller family of a cartridge.
type Mapper uint8

const (
	MapperNone Mapper = iota
	MapperMBC1
	MapperMBC2
	MapperMBC3
	MapperMBC5
)

func (m Mapper) String() string {
	switch m {
	case MapperNone:
		return "ROM ONLY"
	case MapperMBC1:
		return "MBC1"
	case MapperMBC2:
		return "MBC2"
	case MapperMBC3:
		return "MBC3"
	case MapperMBC5:
		return "MBC5"
	default:
		return fmt.Sprintf("Mapper(%d)", uint8(m))
	}
}

// Features lists optional hardware on the cartridge board.
type Features struct {
	RAM     bool
	Battery bool
	Timer   bool
	Rumble  bool
}

type typeInfo struct {
	mapper   Mapper
	features Features
}

var cartridgeTypes = map[byte]typeInfo{
	0x00: {MapperNone, Features{}},
	0x01: {MapperMBC1, Features{}},
	0x02: {MapperMBC1, Features{RAM: true}},
	0x03: {MapperMBC1, Features{RAM: true, Battery: true}},
	0x05: {MapperMBC2, Features{RAM: true}},
	0x06: {MapperMBC2, Features{RAM: true, Battery: true}},
	0x08: {MapperNone, Features{RAM: true}},
	0x09: {MapperNone, Features{RAM: true, Battery: true}},
	0x0F: {MapperMBC3, Features{Timer: true, Battery: true}},
	0x10: {MapperMBC3, Features{RAM: true, Timer: true, Battery: true}},
	0x11: {MapperMBC3, Features{}},
	0x12: {MapperMBC3, Features{RAM: true}},
	0x13: {MapperMBC3, Features{RAM: true, Battery: true}},
	0x19: {MapperMBC5, Features{}},
	0x1A: {MapperMBC5, Features{RAM: true}},
	0x1B: {MapperMBC5, Features{RAM: true, Battery: true}},
	0x1C: {MapperMBC5, Features{Rumble: true}},
	0x1D: {MapperMBC5, Features{RAM: true, Rumble: true}},
	0x1E: {MapperMBC5, Features{RAM: true, Battery: true, Rumble: true}},
}

// mbc2RAMSize is the built-in 512x4 bit RAM of MBC2 chips.
const mbc2RAMSize = 512

// Cartridge holds an immutable ROM image and the mutable external RAM.
type Cartridge struct {
	header   Header
	mapper   Mapper
	features Features
	rom      []byte
	ram      []byte
	warnings []error
}

// New validates a ROM image and returns the cartridge. Unsupported mappers and
// truncated images are rejected; a bad header checksum only adds a warning.
func New(data []byte) (*Cartridge, error) {
	if len(data) < HeaderEnd {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedROM, len(data), HeaderEnd)
	}

	header := parseHeader(data)

	info, ok := cartridgeTypes[header.CartridgeType]
	if !ok {
		return nil, fmt.Errorf("%w: type 0x%02X", ErrUnsupportedMapper, header.CartridgeType)
	}

	declared := header.ROMSize()
	if declared == 0 {
		return nil, fmt.Errorf("%w: unknown ROM size code 0x%02X", ErrTruncatedROM, header.ROMSizeCode)
	}
	if len(data) < declared {
		return nil, fmt.Errorf("%w: %d bytes, header declares %d", ErrTruncatedROM, len(data), declared)
	}

	cart := &Cartridge{
		header:   header,
		mapper:   info.mapper,
		features: info.features,
		rom:      make([]byte, len(data)),
	}
	copy(cart.rom, data)

	ramSize := header.RAMSize()
	if info.mapper == MapperMBC2 {
		ramSize = mbc2RAMSize
	}
	cart.ram = make([]byte, ramSize)

	if actual := computeHeaderChecksum(data); actual != header.HeaderChecksum {
		cart.warnings = append(cart.warnings, ChecksumWarning{Expected: header.HeaderChecksum, Actual: actual})
	}

	return cart, nil
}

// LoadFile reads a ROM image from disk.
func LoadFile(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM %s: %w", path, err)
	}
	return New(data)
}

// Header returns the parsed header.
func (c *Cartridge) Header() Header { return c.header }

// Mapper returns the bank controller family.
func (c *Cartridge) Mapper() Mapper { return c.mapper }

// Features returns the optional board hardware.
func (c *Cartridge) Features() Features { return c.features }

// ROM returns the ROM image. Callers must not modify it.
func (c *Cartridge) ROM() []byte { return c.rom }

// RAM returns the external RAM, shared with the MBC.
func (c *Cartridge) RAM() []byte { return c.ram }

// Title is a shorthand for Header().Title.
func (c *Cartridge) Title() string { return c.header.Title }

// Warnings returns non-fatal problems found while loading.
func (c *Cartridge) Warnings() []error { return c.warnings }

// ROMBanks returns the number of 16KiB ROM banks in the image.
func (c *Cartridge) ROMBanks() int { return len(c.rom) / 0x4000 }
