package interrupt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectors(t *testing.T) {
	expected := map[Kind]uint16{
		VBlank:  0x40,
		LCDStat: 0x48,
		Timer:   0x50,
		Serial:  0x58,
		Joypad:  0x60,
	}
	for kind, vector := range expected {
		assert.Equal(t, vector, kind.Vector(), kind.String())
	}
}

func TestPendingPriority(t *testing.T) {
	tests := []struct {
		name     string
		ie, iF   uint8
		expected Kind
		ok       bool
	}{
		{"nothing requested", 0x1F, 0x00, 0, false},
		{"requested but disabled", 0x00, 0x1F, 0, false},
		{"vblank wins over all", 0x1F, 0x1F, VBlank, true},
		{"timer over serial", 0x1F, 0x0C, Timer, true},
		{"stat only enabled", 0x02, 0x1F, LCDStat, true},
		{"joypad alone", 0x10, 0x10, Joypad, true},
		{"upper bits ignored", 0xE0, 0xE0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.WriteIE(tt.ie)
			c.WriteIF(tt.iF)
			kind, ok := c.Pending()
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, kind)
			}
		})
	}
}

func TestRequestAcknowledge(t *testing.T) {
	c := New()
	c.WriteIE(0xFF)

	c.Request(Timer)
	c.Request(VBlank)
	assert.Equal(t, uint8(0xE5), c.ReadIF())

	c.Acknowledge(VBlank)
	kind, ok := c.Pending()
	assert.True(t, ok)
	assert.Equal(t, Timer, kind)

	c.Acknowledge(Timer)
	_, ok = c.Pending()
	assert.False(t, ok)
	assert.Equal(t, uint8(0xE0), c.ReadIF())
	assert.Equal(t, uint8(0xFF), c.ReadIE())
}
