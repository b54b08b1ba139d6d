package video

import (
	"sync"
	"sync/atomic"
)

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	framebufferSize   = FramebufferWidth * FramebufferHeight
)

// Shade is a palette-mapped DMG pixel, 0 (lightest) to 3 (darkest).
type Shade uint8

// GBColor is an ARGB color for a shade.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0xFF989898
	DarkGreyColor  GBColor = 0xFF4C4C4C
	BlackColor     GBColor = 0xFF000000
)

var shadeColors = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// Color maps the shade onto the default grey ramp.
func (s Shade) Color() GBColor {
	return shadeColors[s&0x03]
}

// Frame is one full screen of shades, row major.
type Frame [framebufferSize]Shade

// Pixel returns the shade at (x, y).
func (f *Frame) Pixel(x, y int) Shade {
	return f[y*FramebufferWidth+x]
}

// Row returns scanline y.
func (f *Frame) Row(y int) []Shade {
	return f[y*FramebufferWidth : (y+1)*FramebufferWidth]
}

// FrameBuffer is double buffered. The PPU draws into the back frame and swaps at
// V-blank entry; readers only ever copy the front frame, so they never see a
// partially drawn screen.
type FrameBuffer struct {
	mu      sync.Mutex
	buffers [2]Frame
	back    int
	swaps   atomic.Uint64
}

// Back returns the frame being drawn. Only the PPU may use it.
func (fb *FrameBuffer) Back() *Frame {
	return &fb.buffers[fb.back]
}

// Swap publishes the back frame.
func (fb *FrameBuffer) Swap() {
	fb.mu.Lock()
	fb.back ^= 1
	fb.mu.Unlock()
	fb.swaps.Add(1)
}

// CopyFront copies the last completed frame into dst. Safe from any goroutine.
func (fb *FrameBuffer) CopyFront(dst *Frame) {
	fb.mu.Lock()
	*dst = fb.buffers[fb.back^1]
	fb.mu.Unlock()
}

// Swaps returns how many frames have been published.
func (fb *FrameBuffer) Swaps() uint64 {
	return fb.swaps.Load()
}

// Clear blanks both frames.
func (fb *FrameBuffer) Clear() {
	fb.mu.Lock()
	fb.buffers = [2]Frame{}
	fb.mu.Unlock()
}
