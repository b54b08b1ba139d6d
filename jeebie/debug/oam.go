package debug

import (
	"fmt"

	"github.com/valerio/jeebug/jeebie/video"
)

const MaxSpritesPerLine = 10

// SpriteInfo is one OAM entry annotated with its visibility on a scanline.
type SpriteInfo struct {
	video.Sprite
	Visible bool
}

func (s SpriteInfo) String() string {
	status := "OFF"
	if s.Visible {
		status = "ACTIVE"
	}
	return fmt.Sprintf("Sprite %2d: Y=%3d X=%3d  Tile=0x%02X Flags=0x%02X [%s]",
		s.OAMIndex, s.Y, s.X, s.TileIndex, s.Flags, status)
}

// OAMData is the sprite table as seen from one scanline.
type OAMData struct {
	Sprites       []SpriteInfo
	CurrentLine   int
	ActiveSprites int
	SpriteHeight  int
}

// ExtractOAMData marks which of the decoded sprites cover line.
func ExtractOAMData(sprites []video.Sprite, line, height int) *OAMData {
	data := &OAMData{
		Sprites:      make([]SpriteInfo, len(sprites)),
		CurrentLine:  line,
		SpriteHeight: height,
	}
	for i, s := range sprites {
		visible := s.Y <= line && line < s.Y+height
		if visible {
			data.ActiveSprites++
		}
		data.Sprites[i] = SpriteInfo{Sprite: s, Visible: visible}
	}
	return data
}

func (data *OAMData) VisibleSprites() []SpriteInfo {
	visible := make([]SpriteInfo, 0, data.ActiveSprites)
	for _, sprite := range data.Sprites {
		if sprite.Visible {
			visible = append(visible, sprite)
		}
	}
	return visible
}

func (data *OAMData) FormatSummary() string {
	return fmt.Sprintf("Current Line: %d | Active Sprites: %d/%d | Height: %dpx",
		data.CurrentLine, min(data.ActiveSprites, MaxSpritesPerLine), MaxSpritesPerLine, data.SpriteHeight)
}
