package video

import (
	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/bit"
)

// renderScanline composes background, window and sprites for the current LY
// into the back frame. It runs once per visible line at the end of mode 3.
func (p *PPU) renderScanline() {
	if int(p.ly) >= visibleLines {
		return
	}
	row := p.frames.Back().Row(int(p.ly))

	p.renderBackground(row)
	p.renderWindow(row)
	if bit.IsSet(lcdcObjEnable, p.lcdc) {
		p.renderSprites(row)
	}
}

// tileRow fetches row y (0-7) of a background/window tile, honoring the
// signed 0x8800 addressing mode.
func (p *PPU) tileRow(tileIndex byte, y int) TileRow {
	var base uint16
	if bit.IsSet(lcdcTileData, p.lcdc) {
		base = addr.TileData0 + uint16(tileIndex)*16
	} else {
		base = uint16(int(addr.TileData2) + int(int8(tileIndex))*16)
	}
	offset := base + uint16(y*2) - addr.VRAMStart
	return TileRow{Low: p.vram[offset], High: p.vram[offset+1]}
}

func (p *PPU) mapBase(bitIndex uint8) uint16 {
	if bit.IsSet(bitIndex, p.lcdc) {
		return addr.TileMap1
	}
	return addr.TileMap0
}

func (p *PPU) renderBackground(row []Shade) {
	// on DMG, LCDC bit 0 blanks both background and window
	if !bit.IsSet(lcdcBGEnable, p.lcdc) {
		for x := range row {
			row[x] = 0
			p.bgColor[x] = 0
		}
		return
	}

	y := p.scy + p.ly
	mapRow := p.mapBase(lcdcBGTileMap) + uint16(y/8)*32

	for x := range FramebufferWidth {
		px := byte(x) + p.scx
		tileIndex := p.vram[mapRow+uint16(px/8)-addr.VRAMStart]
		color := p.tileRow(tileIndex, int(y%8)).Pixel(int(px % 8))
		p.bgColor[x] = color
		row[x] = applyPalette(p.bgp, color)
	}
}

func (p *PPU) renderWindow(row []Shade) {
	if !bit.IsSet(lcdcBGEnable, p.lcdc) || !bit.IsSet(lcdcWindowEnable, p.lcdc) {
		return
	}
	if p.ly < p.wy || p.wx > 166 {
		return
	}

	startX := int(p.wx) - 7
	mapRow := p.mapBase(lcdcWindowMap) + uint16(p.windowLine/8)*32
	drawn := false

	for x := max(startX, 0); x < FramebufferWidth; x++ {
		wx := x - startX
		tileIndex := p.vram[mapRow+uint16(wx/8)-addr.VRAMStart]
		color := p.tileRow(tileIndex, p.windowLine%8).Pixel(wx % 8)
		p.bgColor[x] = color
		row[x] = applyPalette(p.bgp, color)
		drawn = true
	}

	// the window keeps its own line counter, advanced only on lines it covers
	if drawn {
		p.windowLine++
	}
}

func (p *PPU) spriteHeight() int {
	if bit.IsSet(lcdcObjSize, p.lcdc) {
		return 16
	}
	return 8
}

// spriteRow fetches the tile row of s that falls on the current line.
func (p *PPU) spriteRow(s Sprite, height int) TileRow {
	line := int(p.ly) - s.Y
	if s.FlipY {
		line = height - 1 - line
	}
	tile := s.TileIndex
	if height == 16 {
		tile &^= 1
	}
	offset := uint16(tile)*16 + uint16(line*2)
	return TileRow{Low: p.vram[offset], High: p.vram[offset+1]}
}

func spritePixel(row TileRow, s Sprite, x int) uint8 {
	if s.FlipX {
		return row.PixelFlipped(x)
	}
	return row.Pixel(x)
}

// renderSprites draws up to ten sprites. Each opaque pixel goes to the sprite
// with the lowest X (then lowest OAM index); that sprite's BG priority flag
// then decides against background colors 1-3.
func (p *PPU) renderSprites(row []Shade) {
	height := p.spriteHeight()
	sprites := p.scanner.scan(&p.oam, int(p.ly), height)
	if len(sprites) == 0 {
		return
	}

	var rows [maxSpritesPerLine]TileRow
	p.priority.Clear()
	for slot, s := range sprites {
		rows[slot] = p.spriteRow(s, height)
		for x := range 8 {
			if spritePixel(rows[slot], s, x) != 0 {
				p.priority.TryClaimPixel(s.X+x, slot, s.X, s.OAMIndex)
			}
		}
	}

	for screenX := range FramebufferWidth {
		slot := p.priority.Owner(screenX)
		if slot < 0 {
			continue
		}
		s := sprites[slot]
		if s.BehindBG && p.bgColor[screenX] != 0 {
			continue
		}
		palette := p.obp0
		if s.PaletteOBP1 {
			palette = p.obp1
		}
		row[screenX] = applyPalette(palette, spritePixel(rows[slot], s, screenX-s.X))
	}
}
