// Package testrom builds synthetic cartridge images for tests.
package testrom

const (
	bankSize       = 0x4000
	titleAddr      = 0x134
	typeAddr       = 0x147
	romSizeAddr    = 0x148
	ramSizeAddr    = 0x149
	checksumAddr   = 0x14D
	checksumStart  = 0x134
	checksumEnd    = 0x14C
	entryPointAddr = 0x100
)

type config struct {
	title       string
	mapper      byte
	romSizeCode byte
	ramSizeCode byte
	markers     bool
	badChecksum bool
	truncate    int
	code        []patch
}

type patch struct {
	addr  int
	bytes []byte
}

// Option configures a built ROM.
type Option func(*config)

// WithTitle sets the header title.
func WithTitle(title string) Option { return func(c *config) { c.title = title } }

// WithMapper sets the cartridge type byte at 0x147.
func WithMapper(mapper byte) Option { return func(c *config) { c.mapper = mapper } }

// WithROMSizeCode sets the ROM size code; the image is 32KiB << code.
func WithROMSizeCode(code byte) Option { return func(c *config) { c.romSizeCode = code } }

// WithRAMSizeCode sets the RAM size code at 0x149.
func WithRAMSizeCode(code byte) Option { return func(c *config) { c.ramSizeCode = code } }

// WithBankMarkers fills every switchable bank n with the byte n.
func WithBankMarkers() Option { return func(c *config) { c.markers = true } }

// WithBadChecksum stores a wrong header checksum.
func WithBadChecksum() Option { return func(c *config) { c.badChecksum = true } }

// WithTruncation cuts the image to size bytes after it's built.
func WithTruncation(size int) Option { return func(c *config) { c.truncate = size } }

// WithCode copies bytes into the image at the given ROM offset. Later patches win.
func WithCode(addr int, bytes ...byte) Option {
	return func(c *config) { c.code = append(c.code, patch{addr, bytes}) }
}

// WithEntry places code at the 0x0100 entry point.
func WithEntry(bytes ...byte) Option { return WithCode(entryPointAddr, bytes...) }

// Build returns a ROM image with a valid header unless told otherwise.
func Build(opts ...Option) []byte {
	cfg := config{title: "TESTROM"}
	for _, opt := range opts {
		opt(&cfg)
	}

	size := (2 * bankSize) << cfg.romSizeCode
	rom := make([]byte, size)

	if cfg.markers {
		for bank := 1; bank < size/bankSize; bank++ {
			for i := range bankSize {
				rom[bank*bankSize+i] = byte(bank)
			}
		}
	}

	copy(rom[titleAddr:titleAddr+16], cfg.title)
	rom[typeAddr] = cfg.mapper
	rom[romSizeAddr] = cfg.romSizeCode
	rom[ramSizeAddr] = cfg.ramSizeCode

	for _, p := range cfg.code {
		copy(rom[p.addr:], p.bytes)
	}

	rom[checksumAddr] = Checksum(rom)
	if cfg.badChecksum {
		rom[checksumAddr]++
	}

	if cfg.truncate > 0 && cfg.truncate < len(rom) {
		rom = rom[:cfg.truncate]
	}
	return rom
}

// Checksum computes the header checksum over 0x134-0x14C.
func Checksum(rom []byte) byte {
	var sum byte
	for i := checksumStart; i <= checksumEnd; i++ {
		sum = sum - rom[i] - 1
	}
	return sum
}
