package render

import "github.com/valerio/jeebug/jeebie/video"

// Cell is one terminal character covering two vertically stacked pixels.
type Cell struct {
	Rune rune
	Fg   video.Shade
	Bg   video.Shade
}

// HalfBlock packs two pixels into one cell: the upper half block draws the
// top pixel in the foreground and the bottom pixel shows through as background.
func HalfBlock(top, bottom video.Shade) Cell {
	if top == bottom {
		return Cell{Rune: '█', Fg: top, Bg: bottom}
	}
	return Cell{Rune: '▀', Fg: top, Bg: bottom}
}

// FrameCells converts a frame into rows of half-block cells, 160x72.
func FrameCells(frame *video.Frame) [][]Cell {
	rows := make([][]Cell, 0, (video.FramebufferHeight+1)/2)
	for y := 0; y < video.FramebufferHeight; y += 2 {
		row := make([]Cell, video.FramebufferWidth)
		for x := range row {
			bottom := video.Shade(0)
			if y+1 < video.FramebufferHeight {
				bottom = frame.Pixel(x, y+1)
			}
			row[x] = HalfBlock(frame.Pixel(x, y), bottom)
		}
		rows = append(rows, row)
	}
	return rows
}
