package video

import "github.com/valerio/jeebug/jeebie/bit"

// TileRow is one 8 pixel row of a tile in the 2bpp planar format.
//
//	Byte 1 (Low):  bit plane 0
//	Byte 2 (High): bit plane 1
//
// Bit 7 is the leftmost pixel. Bytes $3C and $7E give:
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
//
// Reference: https://gbdev.io/pandocs/Tile_Data.html
type TileRow struct {
	Low  byte
	High byte
}

// Pixel returns the color index (0-3) of pixel x, 0 being the leftmost.
func (t TileRow) Pixel(x int) uint8 {
	return t.pixelAt(uint8(7 - x))
}

// PixelFlipped is Pixel with the row mirrored horizontally.
func (t TileRow) PixelFlipped(x int) uint8 {
	return t.pixelAt(uint8(x))
}

func (t TileRow) pixelAt(bitIndex uint8) uint8 {
	return bit.Value(bitIndex, t.Low) | bit.Value(bitIndex, t.High)<<1
}

// applyPalette maps a color index through a BGP/OBP style palette register.
func applyPalette(palette byte, color uint8) Shade {
	return Shade((palette >> (color * 2)) & 0x03)
}
