package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Combine(tt.high, tt.low))
		assert.Equal(t, tt.high, High(tt.expected))
		assert.Equal(t, tt.low, Low(tt.expected))
	}
}

func TestSetClear(t *testing.T) {
	for i := uint8(0); i < 8; i++ {
		v := Set(i, 0)
		assert.True(t, IsSet(i, v))
		assert.Equal(t, uint8(1), Value(i, v))
		assert.Equal(t, uint8(0), Clear(i, v))
		assert.Equal(t, v, SetTo(i, 0, true))
		assert.Equal(t, uint8(0xFF)&^v, SetTo(i, 0xFF, false))
	}
	assert.True(t, IsSet16(9, 0x0200))
	assert.False(t, IsSet16(9, 0x01FF))
}

func TestExtractBits(t *testing.T) {
	assert.Equal(t, uint8(0b101), ExtractBits(0b11010110, 6, 4))
	assert.Equal(t, uint8(0b11), ExtractBits(0b00000011, 1, 0))
	assert.Equal(t, uint8(0xD6), ExtractBits(0xD6, 7, 0))
}

func TestSignedOffset(t *testing.T) {
	tests := []struct {
		name     string
		base     uint16
		offset   uint8
		expected uint16
	}{
		{"forward", 0x0100, 0x05, 0x0105},
		{"backward", 0x0100, 0xFE, 0x00FE},
		{"wrap up", 0xFFFF, 0x01, 0x0000},
		{"wrap down", 0x0000, 0xFF, 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SignedOffset(tt.base, tt.offset))
		})
	}
}
