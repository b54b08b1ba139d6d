// Package terminal is an interactive debugger console drawn with tcell.
//
// The console runs two loops. The emulation loop owns the session: it runs
// frames, applies commands and publishes a read-only view after each change.
// The UI loop turns key presses into commands and redraws from the latest view
// and the session's front frame buffer.
package terminal

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/jeebug/jeebie"
	"github.com/valerio/jeebug/jeebie/backend/terminal/render"
	"github.com/valerio/jeebug/jeebie/debug"
	"github.com/valerio/jeebug/jeebie/disasm"
	"github.com/valerio/jeebug/jeebie/memory"
	"github.com/valerio/jeebug/jeebie/timing"
	"github.com/valerio/jeebug/jeebie/video"
)

const (
	defaultRefresh = time.Second / 30
	disasmBefore   = 4
	disasmAfter    = 8
)

// Config holds the console settings.
type Config struct {
	// Limiter paces free-running emulation. Nil means no pacing.
	Limiter timing.Limiter
	// Logs is displayed in the log pane. Nil gets a fresh buffer.
	Logs *render.LogBuffer
	// SnapshotDir receives PNG snapshots; empty means the working directory.
	SnapshotDir string
	// ROMName prefixes snapshot file names.
	ROMName string
	// StartPaused leaves the machine stopped until the user resumes it.
	StartPaused bool
	// Refresh is the redraw interval.
	Refresh time.Duration
}

type commandKind int

const (
	cmdToggle commandKind = iota
	cmdStep
	cmdFrame
	cmdBreakpoint
	cmdReset
	cmdButton
)

type command struct {
	kind    commandKind
	button  memory.Button
	pressed bool
}

// view is what the UI draws besides the frame. The emulation loop replaces it
// wholesale, so the UI only needs the lock to read the pointer.
type view struct {
	running     bool
	snapshot    debug.Snapshot
	disasm      []disasm.Line
	breakpoints []uint16
	oam         string
}

// Console drives a session from a terminal screen.
type Console struct {
	screen   tcell.Screen
	session  *jeebie.Session
	cfg      Config
	limiter  timing.Limiter
	logs     *render.LogBuffer
	commands chan command

	mu      sync.Mutex
	current *view

	// UI goroutine state.
	frame    video.Frame
	held     map[memory.Button]time.Time
	logLevel slog.Level
	showOAM  bool
}

// New returns a console for an initialized screen. The caller keeps ownership
// of the screen and must call Fini on it.
func New(screen tcell.Screen, session *jeebie.Session, cfg Config) *Console {
	if cfg.Refresh <= 0 {
		cfg.Refresh = defaultRefresh
	}
	if cfg.ROMName == "" {
		cfg.ROMName = "jeebug"
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	logs := cfg.Logs
	if logs == nil {
		logs = render.NewLogBuffer(200)
	}

	return &Console{
		screen:   screen,
		session:  session,
		cfg:      cfg,
		limiter:  limiter,
		logs:     logs,
		commands: make(chan command, 16),
		held:     make(map[memory.Button]time.Time),
		logLevel: slog.LevelInfo,
	}
}

// Run blocks until the user quits or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	c.screen.Clear()

	g, ctx := errgroup.WithContext(ctx)
	events := make(chan tcell.Event, 16)

	g.Go(func() error {
		c.screen.ChannelEvents(events, ctx.Done())
		return nil
	})
	g.Go(func() error {
		return c.emulate(ctx)
	})
	g.Go(func() error {
		return c.ui(ctx, cancel, events)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Console) emulate(ctx context.Context) error {
	running := !c.cfg.StartPaused
	c.publish(running)
	c.limiter.Reset()

	for {
		if !running {
			select {
			case <-ctx.Done():
				return nil
			case cmd := <-c.commands:
				running = c.apply(ctx, cmd, running)
				c.publish(running)
			}
			continue
		}

		running = c.drain(ctx, running)
		if !running {
			c.publish(running)
			continue
		}

		reason, err := c.session.RunFrame(ctx)
		switch reason {
		case jeebie.StopCanceled:
			return nil
		case jeebie.StopFrame:
			if err := c.limiter.Wait(ctx); err != nil {
				return nil
			}
		case jeebie.StopBreakpoint:
			running = false
			hit := c.session.LastHit()
			slog.Info("Stopped at breakpoint", "kind", hit.Kind.String(), "pc", hex16(hit.Address))
		case jeebie.StopFault:
			running = false
			slog.Debug("Emulation stopped", "error", err)
		default:
			running = false
		}
		c.publish(running)
	}
}

// drain applies every queued command without blocking.
func (c *Console) drain(ctx context.Context, running bool) bool {
	for {
		select {
		case cmd := <-c.commands:
			running = c.apply(ctx, cmd, running)
		default:
			return running
		}
	}
}

func (c *Console) apply(ctx context.Context, cmd command, running bool) bool {
	switch cmd.kind {
	case cmdToggle:
		running = !running
		if running {
			c.stepOffBreakpoint()
			c.limiter.Reset()
			slog.Info("Resumed")
		} else {
			slog.Info("Paused", "pc", hex16(c.session.Registers().PC))
		}
	case cmdStep:
		if !running {
			// Faults are logged by the session and shown in the register pane.
			_, _ = c.session.Step()
		}
	case cmdFrame:
		if !running {
			c.stepOffBreakpoint()
			_, _ = c.session.RunFrame(ctx)
		}
	case cmdBreakpoint:
		pc := c.session.Registers().PC
		if c.session.ToggleBreakpoint(pc) {
			slog.Info("Breakpoint set", "pc", hex16(pc))
		} else {
			slog.Info("Breakpoint cleared", "pc", hex16(pc))
		}
	case cmdReset:
		if err := c.session.Reset(); err != nil {
			slog.Error("Reset failed", "error", err)
		}
	case cmdButton:
		c.session.SetButton(cmd.button, cmd.pressed)
	}
	return running
}

// stepOffBreakpoint executes the instruction under PC when a breakpoint
// matches it, so resuming from the console always makes progress.
func (c *Console) stepOffBreakpoint() {
	pc := c.session.Registers().PC
	if slices.Contains(c.session.Breakpoints(), pc) || slices.Contains(c.session.OpcodeBreakpoints(), c.session.Peek(pc)) {
		_, _ = c.session.Step()
	}
}

func (c *Console) publish(running bool) {
	pc := c.session.Registers().PC
	v := &view{
		running:     running,
		snapshot:    c.session.Snapshot(),
		disasm:      c.session.DisassembleAround(pc, disasmBefore, disasmAfter),
		breakpoints: c.session.Breakpoints(),
		oam:         c.session.OAM().FormatSummary(),
	}

	c.mu.Lock()
	c.current = v
	c.mu.Unlock()
}

func (c *Console) latest() *view {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Console) send(ctx context.Context, cmd command) {
	select {
	case c.commands <- cmd:
	case <-ctx.Done():
	}
}

func (c *Console) ui(ctx context.Context, cancel context.CancelFunc, events <-chan tcell.Event) error {
	ticker := time.NewTicker(c.cfg.Refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				cancel()
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if c.handleKey(ctx, ev) {
					cancel()
					return nil
				}
			case *tcell.EventResize:
				c.screen.Sync()
			}
		case now := <-ticker.C:
			c.releaseExpired(ctx, now)
			c.draw()
		}
	}
}

// handleKey reports whether the key asked to quit.
func (c *Console) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	act, button, isButton := decodeKey(ev)
	if isButton {
		if _, ok := c.held[button]; !ok {
			c.send(ctx, command{kind: cmdButton, button: button, pressed: true})
		}
		c.held[button] = time.Now()
		return false
	}

	switch act {
	case actionQuit:
		slog.Info("Quitting")
		return true
	case actionToggle:
		c.send(ctx, command{kind: cmdToggle})
	case actionStep:
		c.send(ctx, command{kind: cmdStep})
	case actionFrame:
		c.send(ctx, command{kind: cmdFrame})
	case actionBreakpoint:
		c.send(ctx, command{kind: cmdBreakpoint})
	case actionReset:
		c.send(ctx, command{kind: cmdReset})
	case actionSnapshot:
		c.saveSnapshot()
	case actionOAM:
		c.showOAM = !c.showOAM
	case actionLogMore:
		c.logLevel = max(c.logLevel-4, slog.LevelDebug)
	case actionLogLess:
		c.logLevel = min(c.logLevel+4, slog.LevelError)
	}
	return false
}

func (c *Console) releaseExpired(ctx context.Context, now time.Time) {
	for button, last := range c.held {
		if now.Sub(last) >= keyTimeout {
			delete(c.held, button)
			c.send(ctx, command{kind: cmdButton, button: button, pressed: false})
		}
	}
}

func (c *Console) saveSnapshot() {
	c.session.Frame(&c.frame)
	if _, err := debug.SaveFramePNG(&c.frame, c.cfg.ROMName, c.cfg.SnapshotDir); err != nil {
		slog.Error("Failed to save PNG snapshot", "error", err)
	}
}
