package addr

// Memory map window boundaries (inclusive).
const (
	ROM0Start     uint16 = 0x0000
	ROM0End       uint16 = 0x3FFF
	ROMXStart     uint16 = 0x4000
	ROMXEnd       uint16 = 0x7FFF
	VRAMStart     uint16 = 0x8000
	VRAMEnd       uint16 = 0x9FFF
	ExtRAMStart   uint16 = 0xA000
	ExtRAMEnd     uint16 = 0xBFFF
	WRAMStart     uint16 = 0xC000
	WRAMEnd       uint16 = 0xDFFF
	EchoStart     uint16 = 0xE000
	EchoEnd       uint16 = 0xFDFF
	OAMStart      uint16 = 0xFE00
	OAMEnd        uint16 = 0xFE9F
	UnusableStart uint16 = 0xFEA0
	UnusableEnd   uint16 = 0xFEFF
	IOStart       uint16 = 0xFF00
	IOEnd         uint16 = 0xFF7F
	HRAMStart     uint16 = 0xFF80
	HRAMEnd       uint16 = 0xFFFE
)

// joypad and serial
const (
	// Joypad (P1) register.
	P1 uint16 = 0xFF00
	// Serial transfer data.
	SB uint16 = 0xFF01
	// Serial transfer control.
	SC uint16 = 0xFF02
)

// timer registers
const (
	// Divider register, upper byte of the internal 16 bit counter.
	DIV uint16 = 0xFF04
	// Timer counter.
	TIMA uint16 = 0xFF05
	// Timer modulo, reloaded into TIMA on overflow.
	TMA uint16 = 0xFF06
	// Timer control: enable bit and clock select.
	TAC uint16 = 0xFF07
)

// interrupt registers
const (
	// Interrupt Flag register.
	IF uint16 = 0xFF0F
	// Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// ppu registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCDC Status register.
	STAT uint16 = 0xFF41
	// Scroll Y (SCY) register.
	SCY uint16 = 0xFF42
	// Scroll X (SCX) register.
	SCX uint16 = 0xFF43
	// LCDC Y-Coordinate (readonly) register.
	LY uint16 = 0xFF44
	// LY Compare register.
	LYC uint16 = 0xFF45
	// DMA Transfer and Start register.
	DMA uint16 = 0xFF46
	// BG Palette register.
	BGP uint16 = 0xFF47
	// Object Palette 0 register.
	OBP0 uint16 = 0xFF48
	// Object Palette 1 register.
	OBP1 uint16 = 0xFF49
	// Window Y Position register.
	WY uint16 = 0xFF4A
	// Window X Position register.
	WX uint16 = 0xFF4B
)

// Audio registers are stored but not synthesized.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR14 uint16 = 0xFF14
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR24 uint16 = 0xFF19
	NR30 uint16 = 0xFF1A
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C
	NR33 uint16 = 0xFF1E
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23
	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26
)

// BootOff disables the boot ROM overlay when written.
const BootOff uint16 = 0xFF50

// Tile data and tile map areas in VRAM.
const (
	TileData0 uint16 = 0x8000
	TileData2 uint16 = 0x9000
	TileMap0  uint16 = 0x9800
	TileMap1  uint16 = 0x9C00
)
