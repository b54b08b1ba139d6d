package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/jeebug/jeebie/addr"
)

// fillTile writes tile index with every row set to the given color index.
func fillTile(p *PPU, base uint16, color uint8) {
	var low, high byte
	if color&1 != 0 {
		low = 0xFF
	}
	if color&2 != 0 {
		high = 0xFF
	}
	for row := range uint16(8) {
		p.WriteVRAM(base+row*2, low)
		p.WriteVRAM(base+row*2+1, high)
	}
}

func setSprite(p *PPU, index int, x, y int, tile, flags byte) {
	base := addr.OAMStart + uint16(index*4)
	p.WriteOAM(base, byte(y+16))
	p.WriteOAM(base+1, byte(x+8))
	p.WriteOAM(base+2, tile)
	p.WriteOAM(base+3, flags)
}

// renderFrame runs one whole frame and returns the published front buffer.
func renderFrame(p *PPU) *Frame {
	p.Tick(dotsPerLine*(lastLine+1), irqRecorder{})
	var frame Frame
	p.FrameBuffer().CopyFront(&frame)
	return &frame
}

func TestTileRowPixel(t *testing.T) {
	row := TileRow{Low: 0x3C, High: 0x7E}
	expected := []uint8{0, 2, 3, 3, 3, 3, 2, 0}
	for x, color := range expected {
		assert.Equal(t, color, row.Pixel(x))
		assert.Equal(t, color, row.PixelFlipped(7-x))
	}
}

func TestApplyPalette(t *testing.T) {
	assert.Equal(t, Shade(3), applyPalette(0xE4, 3))
	assert.Equal(t, Shade(0), applyPalette(0x1B, 3))
	assert.Equal(t, Shade(3), applyPalette(0x1B, 0))
}

func TestBackground(t *testing.T) {
	t.Run("unsigned tile data and scroll", func(t *testing.T) {
		p := newTestPPU(0x91)
		fillTile(p, 0x8010, 1)
		p.WriteVRAM(addr.TileMap0, 1)
		p.WriteRegister(addr.SCX, 4)

		frame := renderFrame(p)
		for x := range 4 {
			assert.Equal(t, Shade(1), frame.Pixel(x, 0), "x=%d", x)
		}
		assert.Equal(t, Shade(0), frame.Pixel(4, 0))
		assert.Equal(t, Shade(1), frame.Pixel(0, 7))
		assert.Equal(t, Shade(0), frame.Pixel(0, 8))
	})

	t.Run("signed tile data", func(t *testing.T) {
		p := newTestPPU(0x81)
		fillTile(p, 0x9000, 3) // tile 0
		fillTile(p, 0x8800, 2) // tile 0x80
		p.WriteVRAM(0x9801, 0x80)

		frame := renderFrame(p)
		assert.Equal(t, Shade(3), frame.Pixel(0, 0))
		assert.Equal(t, Shade(2), frame.Pixel(8, 0))
		assert.Equal(t, Shade(3), frame.Pixel(159, 143))
	})

	t.Run("palette mapping", func(t *testing.T) {
		p := newTestPPU(0x91)
		p.WriteRegister(addr.BGP, 0x03) // color 0 -> shade 3
		frame := renderFrame(p)
		assert.Equal(t, Shade(3), frame.Pixel(80, 80))
	})

	t.Run("bg disabled is blank", func(t *testing.T) {
		p := newTestPPU(0x90)
		fillTile(p, 0x8000, 3)
		frame := renderFrame(p)
		assert.Equal(t, Shade(0), frame.Pixel(10, 10))
	})
}

func TestWindow(t *testing.T) {
	p := newTestPPU(0xF1) // window on, window map 9C00
	fillTile(p, 0x8020, 2)
	for i := range uint16(32 * 32) {
		p.WriteVRAM(addr.TileMap1+i, 2)
	}
	p.WriteRegister(addr.WX, 7+80)
	p.WriteRegister(addr.WY, 10)

	p.Tick(dotsPerLine*visibleLines, irqRecorder{})
	assert.Equal(t, visibleLines-10, p.State().WindowLine)

	p.Tick(dotsPerLine*(lastLine+1-visibleLines), irqRecorder{})
	assert.Zero(t, p.State().WindowLine, "reset at the end of the frame")

	var frame Frame
	p.FrameBuffer().CopyFront(&frame)
	assert.Equal(t, Shade(0), frame.Pixel(100, 9), "above WY")
	assert.Equal(t, Shade(0), frame.Pixel(79, 10), "left of WX")
	assert.Equal(t, Shade(2), frame.Pixel(80, 10))
	assert.Equal(t, Shade(2), frame.Pixel(159, 143))
}

func TestWindowOffscreen(t *testing.T) {
	p := newTestPPU(0xF1)
	fillTile(p, 0x8020, 2)
	p.WriteVRAM(addr.TileMap1, 2)
	p.WriteRegister(addr.WX, 167)
	frame := renderFrame(p)
	assert.Equal(t, Shade(0), frame.Pixel(159, 0))
}

func TestSprites(t *testing.T) {
	t.Run("transparent color 0", func(t *testing.T) {
		p := newTestPPU(0x93)
		for row := range uint16(8) {
			p.WriteVRAM(0x8030+row*2, 0x0F)
			p.WriteVRAM(0x8030+row*2+1, 0x0F)
		}
		setSprite(p, 0, 0, 0, 3, 0)

		frame := renderFrame(p)
		assert.Equal(t, Shade(0), frame.Pixel(3, 0))
		assert.Equal(t, Shade(3), frame.Pixel(4, 0))
		assert.Equal(t, Shade(3), frame.Pixel(7, 7))
		assert.Equal(t, Shade(0), frame.Pixel(7, 8))
	})

	t.Run("behind background", func(t *testing.T) {
		p := newTestPPU(0x93)
		fillTile(p, 0x8010, 1)
		p.WriteVRAM(addr.TileMap0, 1)
		fillTile(p, 0x8030, 3)
		setSprite(p, 0, 4, 0, 3, 0x80)

		frame := renderFrame(p)
		assert.Equal(t, Shade(1), frame.Pixel(5, 0), "bg color 1 hides the sprite")
		assert.Equal(t, Shade(3), frame.Pixel(9, 0), "bg color 0 does not")
	})

	t.Run("lower X wins", func(t *testing.T) {
		p := newTestPPU(0x93)
		fillTile(p, 0x8040, 1)
		fillTile(p, 0x8050, 2)
		setSprite(p, 0, 4, 0, 4, 0)
		setSprite(p, 1, 0, 0, 5, 0)

		frame := renderFrame(p)
		assert.Equal(t, Shade(2), frame.Pixel(0, 0))
		assert.Equal(t, Shade(2), frame.Pixel(7, 0))
		assert.Equal(t, Shade(1), frame.Pixel(8, 0))
		assert.Equal(t, Shade(1), frame.Pixel(11, 0))
	})

	t.Run("obp1 and flip", func(t *testing.T) {
		p := newTestPPU(0x93)
		p.WriteRegister(addr.OBP1, 0x1B) // reversed
		p.WriteVRAM(0x8060, 0x80)        // row 0: leftmost pixel color 1
		setSprite(p, 0, 0, 0, 6, 0x30)   // OBP1, flip X

		frame := renderFrame(p)
		assert.Equal(t, Shade(2), frame.Pixel(7, 0))
		assert.Equal(t, Shade(0), frame.Pixel(0, 0))
	})

	t.Run("ten per line", func(t *testing.T) {
		p := newTestPPU(0x93)
		fillTile(p, 0x8070, 3)
		for i := range 11 {
			setSprite(p, i, i*8, 0, 7, 0)
		}

		frame := renderFrame(p)
		assert.Equal(t, Shade(3), frame.Pixel(79, 0))
		assert.Equal(t, Shade(0), frame.Pixel(80, 0), "eleventh sprite dropped")
	})

	t.Run("tall sprites", func(t *testing.T) {
		p := newTestPPU(0x97)
		fillTile(p, 0x8080, 1) // tile 8
		fillTile(p, 0x8090, 2) // tile 9
		setSprite(p, 0, 0, 0, 9, 0)

		frame := renderFrame(p)
		assert.Equal(t, Shade(1), frame.Pixel(0, 0), "low bit of the tile index is ignored")
		assert.Equal(t, Shade(2), frame.Pixel(0, 15))
	})
}

func TestSpritesInspector(t *testing.T) {
	p := newTestPPU(0x93)
	setSprite(p, 2, 80, 50, 0x42, 0xE0)
	sprites := p.Sprites()
	assert.Len(t, sprites, 40)
	s := sprites[2]
	assert.Equal(t, 80, s.X)
	assert.Equal(t, 50, s.Y)
	assert.True(t, s.FlipX)
	assert.True(t, s.FlipY)
	assert.True(t, s.BehindBG)
	assert.False(t, s.PaletteOBP1)
}
