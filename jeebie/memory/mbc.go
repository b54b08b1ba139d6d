package memory

import (
	"fmt"
	"time"

	"github.com/valerio/jeebug/jeebie/cartridge"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// MBC is a Memory Bank Controller. It serves the cartridge windows
// 0000-7FFF and A000-BFFF, and turns writes into ROM space into bank switches.
type MBC interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	// ROMBank is the bank currently mapped at 4000-7FFF.
	ROMBank() int
	// RAMBank is the bank currently mapped at A000-BFFF.
	RAMBank() int
	RAMEnabled() bool
}

// Clock provides the wall time used by the MBC3 real time clock.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// NewMBC builds the controller matching the cartridge mapper.
func NewMBC(cart *cartridge.Cartridge, clock Clock) (MBC, error) {
	rom, ram := cart.ROM(), cart.RAM()
	switch cart.Mapper() {
	case cartridge.MapperNone:
		return NewNoMBC(rom, ram), nil
	case cartridge.MapperMBC1:
		return NewMBC1(rom, ram), nil
	case cartridge.MapperMBC2:
		return NewMBC2(rom, ram), nil
	case cartridge.MapperMBC3:
		return NewMBC3(rom, ram, cart.Features().Timer, clock), nil
	case cartridge.MapperMBC5:
		return NewMBC5(rom, ram, cart.Features().Rumble), nil
	default:
		return nil, fmt.Errorf("%w: %s", cartridge.ErrUnsupportedMapper, cart.Mapper())
	}
}

// readBanked returns the byte at offset inside the given 16KiB bank, wrapping
// bank numbers past the end of the image.
func readBanked(rom []byte, bank int, offset uint16) byte {
	banks := len(rom) / romBankSize
	if banks == 0 {
		return 0xFF
	}
	return rom[(bank%banks)*romBankSize+int(offset)]
}

// ramOffset maps an A000-BFFF address into a RAM bank, wrapping on small RAMs.
func ramOffset(ram []byte, bank int, address uint16) int {
	return (bank*ramBankSize + int(address-0xA000)) % len(ram)
}

// NoMBC maps up to 32KiB of ROM directly, with optional unbanked RAM.
type NoMBC struct {
	rom []byte
	ram []byte
}

func NewNoMBC(rom, ram []byte) *NoMBC {
	return &NoMBC{rom: rom, ram: ram}
}

func (m *NoMBC) Read(address uint16) byte {
	if address < 0x8000 {
		if int(address) < len(m.rom) {
			return m.rom[address]
		}
		return 0xFF
	}
	if len(m.ram) == 0 {
		return 0xFF
	}
	return m.ram[ramOffset(m.ram, 0, address)]
}

func (m *NoMBC) Write(address uint16, value byte) {
	if address >= 0xA000 && address <= 0xBFFF && len(m.ram) > 0 {
		m.ram[ramOffset(m.ram, 0, address)] = value
	}
}

func (m *NoMBC) ROMBank() int { return 1 }
func (m *NoMBC) RAMBank() int { return 0 }
func (m *NoMBC) RAMEnabled() bool { return len(m.ram) > 0 }

// MBC1 supports up to 2MiB ROM and 32KiB RAM.
//
// The bank number is split in two registers: BANK1 (5 bits, written at
// 2000-3FFF, 0 reads as 1) and BANK2 (2 bits, written at 4000-5FFF). In
// mode 0 BANK2 extends the switchable ROM bank only; in mode 1 it also
// selects the RAM bank and the bank mapped at 0000-3FFF.
type MBC1 struct {
	rom        []byte
	ram        []byte
	bank1      byte
	bank2      byte
	mode       byte
	ramEnabled bool
}

func NewMBC1(rom, ram []byte) *MBC1 {
	return &MBC1{rom: rom, ram: ram, bank1: 1}
}

func (m *MBC1) Read(address uint16) byte {
	switch {
	case address < 0x4000:
		bank := 0
		if m.mode == 1 {
			bank = int(m.bank2) << 5
		}
		return readBanked(m.rom, bank, address)
	case address < 0x8000:
		return readBanked(m.rom, m.ROMBank(), address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		return m.ram[ramOffset(m.ram, m.RAMBank(), address)]
	}
	return 0xFF
}

func (m *MBC1) Write(address uint16, value byte) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x4000:
		m.bank1 = value & 0x1F
		if m.bank1 == 0 {
			m.bank1 = 1
		}
	case address < 0x6000:
		m.bank2 = value & 0x03
	case address < 0x8000:
		m.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled && len(m.ram) > 0 {
			m.ram[ramOffset(m.ram, m.RAMBank(), address)] = value
		}
	}
}

func (m *MBC1) ROMBank() int {
	bank := int(m.bank2)<<5 | int(m.bank1)
	if banks := len(m.rom) / romBankSize; banks > 0 {
		bank %= banks
	}
	return bank
}

func (m *MBC1) RAMBank() int {
	if m.mode == 1 {
		return int(m.bank2)
	}
	return 0
}

func (m *MBC1) RAMEnabled() bool { return m.ramEnabled }

// MBC2 has 16 ROM banks and 512 half-bytes of built-in RAM. Register
// selection in 0000-3FFF is done by address bit 8.
type MBC2 struct {
	rom        []byte
	ram        []byte
	romBank    byte
	ramEnabled bool
}

func NewMBC2(rom, ram []byte) *MBC2 {
	return &MBC2{rom: rom, ram: ram, romBank: 1}
}

func (m *MBC2) Read(address uint16) byte {
	switch {
	case address < 0x4000:
		return readBanked(m.rom, 0, address)
	case address < 0x8000:
		return readBanked(m.rom, int(m.romBank), address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		// only the low nibble exists, 512 bytes mirrored through the window
		return m.ram[int(address-0xA000)%len(m.ram)] | 0xF0
	}
	return 0xFF
}

func (m *MBC2) Write(address uint16, value byte) {
	switch {
	case address < 0x4000:
		if address&0x0100 == 0 {
			m.ramEnabled = value&0x0F == 0x0A
			return
		}
		m.romBank = value & 0x0F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled && len(m.ram) > 0 {
			m.ram[int(address-0xA000)%len(m.ram)] = value & 0x0F
		}
	}
}

func (m *MBC2) ROMBank() int {
	if banks := len(m.rom) / romBankSize; banks > 0 {
		return int(m.romBank) % banks
	}
	return int(m.romBank)
}

func (m *MBC2) RAMBank() int { return 0 }
func (m *MBC2) RAMEnabled() bool { return m.ramEnabled }

// MBC5 has a 9 bit ROM bank number where bank 0 is selectable, and up to 16 RAM banks.
type MBC5 struct {
	rom        []byte
	ram        []byte
	romBank    uint16
	ramBank    byte
	ramEnabled bool
	rumble     bool
}

func NewMBC5(rom, ram []byte, rumble bool) *MBC5 {
	return &MBC5{rom: rom, ram: ram, romBank: 1, rumble: rumble}
}

func (m *MBC5) Read(address uint16) byte {
	switch {
	case address < 0x4000:
		return readBanked(m.rom, 0, address)
	case address < 0x8000:
		return readBanked(m.rom, int(m.romBank), address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		return m.ram[ramOffset(m.ram, int(m.ramBank), address)]
	}
	return 0xFF
}

func (m *MBC5) Write(address uint16, value byte) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x3000:
		m.romBank = m.romBank&0x100 | uint16(value)
	case address < 0x4000:
		m.romBank = m.romBank&0xFF | uint16(value&0x01)<<8
	case address < 0x6000:
		m.ramBank = value & 0x0F
		if m.rumble {
			// bit 3 drives the rumble motor on these boards
			m.ramBank &= 0x07
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled && len(m.ram) > 0 {
			m.ram[ramOffset(m.ram, int(m.ramBank), address)] = value
		}
	}
}

func (m *MBC5) ROMBank() int {
	if banks := len(m.rom) / romBankSize; banks > 0 {
		return int(m.romBank) % banks
	}
	return int(m.romBank)
}

func (m *MBC5) RAMBank() int { return int(m.ramBank) }
func (m *MBC5) RAMEnabled() bool { return m.ramEnabled }
