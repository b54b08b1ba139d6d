package video

import "github.com/valerio/jeebug/jeebie/bit"

const (
	spriteCount       = 40
	maxSpritesPerLine = 10
	spriteYOffset     = 16
	spriteXOffset     = 8
)

// Sprite is one decoded OAM entry, with screen coordinates (hardware offsets removed).
type Sprite struct {
	Y         int
	X         int
	TileIndex uint8
	Flags     uint8
	OAMIndex  int

	PaletteOBP1 bool
	FlipX       bool
	FlipY       bool
	BehindBG    bool
}

func decodeSprite(oam *[oamSize]byte, index int) Sprite {
	base := index * 4
	flags := oam[base+3]
	return Sprite{
		Y:           int(oam[base]) - spriteYOffset,
		X:           int(oam[base+1]) - spriteXOffset,
		TileIndex:   oam[base+2],
		Flags:       flags,
		OAMIndex:    index,
		PaletteOBP1: bit.IsSet(4, flags),
		FlipX:       bit.IsSet(5, flags),
		FlipY:       bit.IsSet(6, flags),
		BehindBG:    bit.IsSet(7, flags),
	}
}

// spriteScanner is the mode 2 OAM search: it picks the first ten sprites
// (in OAM order) whose rows cover the scanline. X plays no part in selection.
type spriteScanner struct {
	selected [maxSpritesPerLine]Sprite
}

func (s *spriteScanner) scan(oam *[oamSize]byte, line, height int) []Sprite {
	sprites := s.selected[:0]
	for i := range spriteCount {
		y := int(oam[i*4]) - spriteYOffset
		if line < y || line >= y+height {
			continue
		}
		sprites = append(sprites, decodeSprite(oam, i))
		if len(sprites) == maxSpritesPerLine {
			break
		}
	}
	return sprites
}

// Sprites decodes all 40 OAM entries, for inspectors.
func (p *PPU) Sprites() []Sprite {
	sprites := make([]Sprite, spriteCount)
	for i := range spriteCount {
		sprites[i] = decodeSprite(&p.oam, i)
	}
	return sprites
}
