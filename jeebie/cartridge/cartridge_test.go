package cartridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebug/jeebie/internal/testrom"
)

func TestNew_Mappers(t *testing.T) {
	tests := []struct {
		name     string
		cartType byte
		mapper   Mapper
		features Features
	}{
		{"rom only", 0x00, MapperNone, Features{}},
		{"mbc1+ram+battery", 0x03, MapperMBC1, Features{RAM: true, Battery: true}},
		{"mbc2", 0x05, MapperMBC2, Features{RAM: true}},
		{"mbc3+timer", 0x0F, MapperMBC3, Features{Timer: true, Battery: true}},
		{"mbc5+rumble", 0x1C, MapperMBC5, Features{Rumble: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := New(testrom.Build(testrom.WithMapper(tt.cartType)))
			require.NoError(t, err)
			assert.Equal(t, tt.mapper, cart.Mapper())
			assert.Equal(t, tt.features, cart.Features())
			assert.Empty(t, cart.Warnings())
		})
	}
}

func TestNew_UnsupportedMapper(t *testing.T) {
	for _, cartType := range []byte{0x0B, 0x20, 0x22, 0xFC, 0xFF} {
		_, err := New(testrom.Build(testrom.WithMapper(cartType)))
		assert.ErrorIs(t, err, ErrUnsupportedMapper, "type 0x%02X", cartType)
	}
}

func TestNew_Truncated(t *testing.T) {
	t.Run("shorter than header", func(t *testing.T) {
		_, err := New(make([]byte, 0x100))
		assert.ErrorIs(t, err, ErrTruncatedROM)
	})

	t.Run("shorter than declared size", func(t *testing.T) {
		rom := testrom.Build(testrom.WithMapper(0x01), testrom.WithROMSizeCode(2), testrom.WithTruncation(0x10000))
		_, err := New(rom)
		assert.ErrorIs(t, err, ErrTruncatedROM)
	})

	t.Run("unknown size code", func(t *testing.T) {
		rom := testrom.Build()
		rom[romSizeAddress] = 0x52
		_, err := New(rom)
		assert.ErrorIs(t, err, ErrTruncatedROM)
	})
}

func TestNew_ChecksumWarning(t *testing.T) {
	cart, err := New(testrom.Build(testrom.WithBadChecksum()))
	require.NoError(t, err)
	require.Len(t, cart.Warnings(), 1)

	var warn ChecksumWarning
	require.True(t, errors.As(cart.Warnings()[0], &warn))
	assert.Equal(t, warn.Actual+1, warn.Expected)
	assert.Contains(t, warn.Error(), "checksum mismatch")
}

func TestHeader(t *testing.T) {
	rom := testrom.Build(
		testrom.WithTitle("POKEMON RED"),
		testrom.WithMapper(0x13),
		testrom.WithROMSizeCode(1),
		testrom.WithRAMSizeCode(3),
	)
	rom[destinationCodeAddress] = 0x01
	rom[oldLicenseeCodeAddress] = 0x01
	rom[versionNumberAddress] = 0x02
	rom[headerChecksumAddress] = testrom.Checksum(rom)

	cart, err := New(rom)
	require.NoError(t, err)

	h := cart.Header()
	assert.Equal(t, "POKEMON RED", cart.Title())
	assert.Equal(t, 0x10000, h.ROMSize())
	assert.Equal(t, 4, cart.ROMBanks())
	assert.Equal(t, 0x8000, h.RAMSize())
	assert.Len(t, cart.RAM(), 0x8000)
	assert.Equal(t, "Overseas", h.Destination())
	assert.Equal(t, "01", h.Licensee())
	assert.Equal(t, byte(2), h.Version)
	assert.False(t, h.SupportsCGB())
	assert.False(t, h.SupportsSGB())
}

func TestMBC2HasBuiltinRAM(t *testing.T) {
	cart, err := New(testrom.Build(testrom.WithMapper(0x05)))
	require.NoError(t, err)
	assert.Len(t, cart.RAM(), 512)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "TETRIS", cleanTitle([]byte("TETRIS\x00\x00\x00garbage")))
	assert.Equal(t, "ABC", cleanTitle([]byte{'A', 0x01, 'B', 'C', 0xFF}))
	assert.Equal(t, "", cleanTitle([]byte{0, 'A'}))
}
