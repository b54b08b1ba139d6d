package memory

import "time"

// RTC register selectors written to 4000-5FFF.
const (
	rtcSeconds = 0x08
	rtcMinutes = 0x09
	rtcHours   = 0x0A
	rtcDayLow  = 0x0B
	rtcDayHigh = 0x0C
)

const (
	rtcDayHighBit = 0x01
	rtcHaltBit    = 0x40
	rtcCarryBit   = 0x80
)

type rtcRegisters struct {
	seconds byte
	minutes byte
	hours   byte
	days    uint16 // 9 bits
	halt    bool
	carry   bool
}

func (r rtcRegisters) read(selector byte) byte {
	switch selector {
	case rtcSeconds:
		return r.seconds
	case rtcMinutes:
		return r.minutes
	case rtcHours:
		return r.hours
	case rtcDayLow:
		return byte(r.days)
	case rtcDayHigh:
		v := byte(r.days>>8) & rtcDayHighBit
		if r.halt {
			v |= rtcHaltBit
		}
		if r.carry {
			v |= rtcCarryBit
		}
		return v
	}
	return 0xFF
}

func (r *rtcRegisters) write(selector, value byte) {
	switch selector {
	case rtcSeconds:
		r.seconds = value % 60
	case rtcMinutes:
		r.minutes = value % 60
	case rtcHours:
		r.hours = value % 24
	case rtcDayLow:
		r.days = r.days&0x100 | uint16(value)
	case rtcDayHigh:
		r.days = r.days&0xFF | uint16(value&rtcDayHighBit)<<8
		r.halt = value&rtcHaltBit != 0
		r.carry = value&rtcCarryBit != 0
	}
}

func (r *rtcRegisters) advance(seconds int64) {
	total := int64(r.seconds) + int64(r.minutes)*60 + int64(r.hours)*3600 + int64(r.days)*86400 + seconds
	r.seconds = byte(total % 60)
	r.minutes = byte(total / 60 % 60)
	r.hours = byte(total / 3600 % 24)
	days := total / 86400
	if days > 0x1FF {
		r.carry = true
		days %= 0x200
	}
	r.days = uint16(days)
}

// MBC3 supports 2MiB ROM, 32KiB RAM and an optional real time clock.
// RTC registers are mapped into A000-BFFF by selecting 08-0C instead of a RAM bank;
// reads return the copy latched by writing 00 then 01 to 6000-7FFF.
type MBC3 struct {
	rom        []byte
	ram        []byte
	romBank    byte
	selected   byte
	ramEnabled bool

	hasRTC     bool
	clock      Clock
	lastSync   time.Time
	live       rtcRegisters
	latched    rtcRegisters
	latchArmed bool
}

func NewMBC3(rom, ram []byte, hasRTC bool, clock Clock) *MBC3 {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &MBC3{
		rom:      rom,
		ram:      ram,
		romBank:  1,
		hasRTC:   hasRTC,
		clock:    clock,
		lastSync: clock.Now(),
	}
}

// sync folds elapsed whole seconds into the live registers.
func (m *MBC3) sync() {
	now := m.clock.Now()
	elapsed := int64(now.Sub(m.lastSync) / time.Second)
	if elapsed <= 0 {
		return
	}
	m.lastSync = m.lastSync.Add(time.Duration(elapsed) * time.Second)
	if !m.live.halt {
		m.live.advance(elapsed)
	}
}

func (m *MBC3) Read(address uint16) byte {
	switch {
	case address < 0x4000:
		return readBanked(m.rom, 0, address)
	case address < 0x8000:
		return readBanked(m.rom, int(m.romBank), address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.selected >= rtcSeconds {
			if !m.hasRTC {
				return 0xFF
			}
			return m.latched.read(m.selected)
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		return m.ram[ramOffset(m.ram, int(m.selected), address)]
	}
	return 0xFF
}

func (m *MBC3) Write(address uint16, value byte) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x4000:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address < 0x6000:
		if value <= 0x03 || (value >= rtcSeconds && value <= rtcDayHigh) {
			m.selected = value
		}
	case address < 0x8000:
		if value == 0x00 {
			m.latchArmed = true
			return
		}
		if value == 0x01 && m.latchArmed && m.hasRTC {
			m.sync()
			m.latched = m.live
		}
		m.latchArmed = false
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.selected >= rtcSeconds {
			if m.hasRTC {
				m.sync()
				m.live.write(m.selected, value)
				m.latched.write(m.selected, value)
			}
			return
		}
		if len(m.ram) > 0 {
			m.ram[ramOffset(m.ram, int(m.selected), address)] = value
		}
	}
}

func (m *MBC3) ROMBank() int {
	if banks := len(m.rom) / romBankSize; banks > 0 {
		return int(m.romBank) % banks
	}
	return int(m.romBank)
}

// RAMBank returns the selected RAM bank, or the RTC register selector (08-0C).
func (m *MBC3) RAMBank() int { return int(m.selected) }
func (m *MBC3) RAMEnabled() bool { return m.ramEnabled }
