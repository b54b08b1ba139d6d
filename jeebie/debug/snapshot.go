package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valerio/jeebug/jeebie/cpu"
	"github.com/valerio/jeebug/jeebie/interrupt"
	"github.com/valerio/jeebug/jeebie/timer"
	"github.com/valerio/jeebug/jeebie/video"
)

// Snapshot is a point-in-time copy of the inspectable machine state. It is
// textual only and cannot be loaded back.
type Snapshot struct {
	CPU     cpu.Registers
	IME     bool
	Halted  bool
	Stopped bool
	Cycles  uint64

	IE uint8
	IF uint8

	PPU   video.State
	Timer timer.State

	ROMBank   int
	RAMBank   int
	DMAActive bool

	Frames    uint64
	CallStack []cpu.CallFrame
	Fault     error
}

// PendingInterrupts lists the sources that are both enabled and requested.
func (s Snapshot) PendingInterrupts() []interrupt.Kind {
	var kinds []interrupt.Kind
	for _, k := range []interrupt.Kind{interrupt.VBlank, interrupt.LCDStat, interrupt.Timer, interrupt.Serial, interrupt.Joypad} {
		if s.IE&s.IF&k.Mask() != 0 {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (s Snapshot) String() string {
	var sb strings.Builder
	r := s.CPU

	fmt.Fprintf(&sb, "AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X\n",
		r.AF(), r.BC(), r.DE(), r.HL(), r.SP, r.PC)
	fmt.Fprintf(&sb, "Flags=%s IME=%s HALT=%s STOP=%s Cycles=%d\n",
		r.FlagString(), onOff(s.IME), onOff(s.Halted), onOff(s.Stopped), s.Cycles)

	pending := make([]string, 0, 5)
	for _, k := range s.PendingInterrupts() {
		pending = append(pending, k.String())
	}
	fmt.Fprintf(&sb, "IE=%02X IF=%02X Pending=[%s]\n", s.IE, s.IF, strings.Join(pending, " "))

	p := s.PPU
	fmt.Fprintf(&sb, "PPU Mode=%s LY=%d LYC=%d Dot=%d LCDC=%02X STAT=%02X SCX=%d SCY=%d WX=%d WY=%d\n",
		p.Mode, p.LY, p.LYC, p.Dot, p.LCDC, p.STAT, p.SCX, p.SCY, p.WX, p.WY)
	fmt.Fprintf(&sb, "Timer DIV=%02X TIMA=%02X TMA=%02X TAC=%02X\n",
		s.Timer.DIV, s.Timer.TIMA, s.Timer.TMA, s.Timer.TAC)
	fmt.Fprintf(&sb, "ROM bank=%d RAM bank=%d DMA=%s Frames=%d\n",
		s.ROMBank, s.RAMBank, onOff(s.DMAActive), s.Frames)

	if len(s.CallStack) > 0 {
		sb.WriteString("Call stack:\n")
		for i := len(s.CallStack) - 1; i >= 0; i-- {
			f := s.CallStack[i]
			kind := "call"
			if f.Interrupt {
				kind = "int "
			}
			fmt.Fprintf(&sb, "  %s %04X -> %04X (ret %04X)\n", kind, f.Site, f.Target, f.Return)
		}
	}
	if s.Fault != nil {
		fmt.Fprintf(&sb, "Fault: %v\n", s.Fault)
	}
	return sb.String()
}

// FrameImage converts a frame to an RGBA image using the default grey ramp.
func FrameImage(frame *video.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := range video.FramebufferHeight {
		for x := range video.FramebufferWidth {
			argb := uint32(frame.Pixel(x, y).Color())
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(argb >> 16),
				G: uint8(argb >> 8),
				B: uint8(argb),
				A: uint8(argb >> 24),
			})
		}
	}
	return img
}

// WriteFramePNG encodes frame as PNG into w.
func WriteFramePNG(w io.Writer, frame *video.Frame) error {
	if err := png.Encode(w, FrameImage(frame)); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SaveFramePNG writes frame to directory (the working directory when empty)
// as <baseName>_<timestamp>.png and returns the path.
func SaveFramePNG(frame *video.Frame, baseName, directory string) (string, error) {
	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		directory = cwd
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(directory, fmt.Sprintf("%s_%s.png", baseName, timestamp))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteFramePNG(file, frame); err != nil {
		return "", err
	}

	slog.Info("Snapshot saved", "path", path, "size", fmt.Sprintf("%dx%d", video.FramebufferWidth, video.FramebufferHeight), "format", "PNG")
	return path, nil
}
