package terminal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebug/jeebie/backend/terminal/render"
	"github.com/valerio/jeebug/jeebie/disasm"
	"github.com/valerio/jeebug/jeebie/video"
)

const (
	gameWidth  = video.FramebufferWidth
	gameHeight = video.FramebufferHeight / 2
	dividerX   = gameWidth + 1
	panelX     = dividerX + 2
	minWidth   = panelX + 40
	minHeight  = gameHeight + 2

	registerRows = 10
	disasmRows   = disasmBefore + disasmAfter + 1
)

var (
	borderStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	textStyle    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	currentStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	breakStyle   = tcell.StyleDefault.Foreground(tcell.ColorRed)

	shadeColors = [4]tcell.Color{
		tcell.NewRGBColor(0xFF, 0xFF, 0xFF),
		tcell.NewRGBColor(0x98, 0x98, 0x98),
		tcell.NewRGBColor(0x4C, 0x4C, 0x4C),
		tcell.NewRGBColor(0x00, 0x00, 0x00),
	}
)

func hex16(v uint16) string { return fmt.Sprintf("0x%04X", v) }

func (c *Console) draw() {
	c.screen.Clear()
	defer c.screen.Show()

	w, h := c.screen.Size()
	if w < minWidth || h < minHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minWidth, minHeight)
		c.text(0, h/2, w, msg, breakStyle)
		return
	}

	v := c.latest()
	if v == nil {
		return
	}

	c.drawBorders(w, h)
	c.drawGame()

	y := 1
	y = c.drawRegisters(y, w, v)
	c.hline(y, w)
	y++
	if c.showOAM {
		y = c.drawOAM(y, w, h, v)
	} else {
		y = c.drawDisassembly(y, w, v)
	}
	c.hline(y, w)
	y++
	c.drawLogs(y, w, h-1)
	c.drawHelp(w, h)
}

func (c *Console) text(x, y, width int, s string, style tcell.Style) {
	for _, r := range s {
		if width <= 0 {
			return
		}
		c.screen.SetContent(x, y, r, nil, style)
		x++
		width--
	}
}

func (c *Console) hline(y, w int) {
	for x := dividerX + 1; x < w; x++ {
		c.screen.SetContent(x, y, '─', nil, borderStyle)
	}
	c.screen.SetContent(dividerX, y, '├', nil, borderStyle)
}

func (c *Console) drawBorders(w, h int) {
	for y := range h - 1 {
		c.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	c.text(1, 0, gameWidth-1, " Game Boy ", titleStyle)
}

func (c *Console) drawGame() {
	c.session.Frame(&c.frame)
	for y, row := range render.FrameCells(&c.frame) {
		for x, cell := range row {
			style := tcell.StyleDefault.Foreground(shadeColors[cell.Fg&3]).Background(shadeColors[cell.Bg&3])
			c.screen.SetContent(x, y+1, cell.Rune, nil, style)
		}
	}
}

func (c *Console) drawRegisters(y, w int, v *view) int {
	width := w - panelX
	status := "PAUSED"
	if v.running {
		status = "RUNNING"
	}
	c.text(panelX, y, width, " "+status+" ", titleStyle)
	y++

	lines := strings.Split(strings.TrimRight(v.snapshot.String(), "\n"), "\n")
	for i := range registerRows - 2 {
		if i < len(lines) {
			c.text(panelX, y, width, lines[i], textStyle)
		}
		y++
	}

	bps := make([]string, len(v.breakpoints))
	for i, bp := range v.breakpoints {
		bps[i] = fmt.Sprintf("%04X", bp)
	}
	c.text(panelX, y, width, "Breakpoints: "+strings.Join(bps, " "), breakStyle)
	return y + 1
}

func (c *Console) drawDisassembly(y, w int, v *view) int {
	width := w - panelX
	pc := v.snapshot.CPU.PC
	marks := make(map[uint16]bool, len(v.breakpoints))
	for _, bp := range v.breakpoints {
		marks[bp] = true
	}

	for i := range disasmRows {
		if i < len(v.disasm) {
			line := v.disasm[i]
			style := textStyle
			if line.Address == pc {
				style = currentStyle
			}
			if marks[line.Address] {
				c.screen.SetContent(panelX-1, y, '*', nil, breakStyle)
			}
			c.text(panelX, y, width, disasm.Format(line, line.Address == pc), style)
		}
		y++
	}
	return y
}

func (c *Console) drawOAM(y, w, h int, v *view) int {
	width := w - panelX
	for i, line := range strings.Split(v.oam, "\n") {
		if i >= disasmRows || y >= h-1 {
			break
		}
		c.text(panelX, y, width, line, textStyle)
		y++
	}
	return y
}

func (c *Console) drawLogs(y, w, bottom int) {
	width := w - panelX
	rows := bottom - y
	if rows <= 0 {
		return
	}

	for i, entry := range c.logs.Recent(rows, c.logLevel) {
		style := textStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = breakStyle.Bold(true)
		case entry.Level >= slog.LevelWarn:
			style = titleStyle
		case entry.Level < slog.LevelInfo:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
		c.text(panelX, y+i, width, render.FormatLogEntry(entry), style)
	}
}

func (c *Console) drawHelp(w, h int) {
	help := fmt.Sprintf(" SPACE=pause/resume N=step F=frame B=breakpoint R=reset P=snapshot O=oam Q=quit | Logs [%s] +/- ", c.logLevel)
	c.text(0, h-1, w, help, borderStyle)
}
