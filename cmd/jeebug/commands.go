package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"

	"github.com/valerio/jeebug/jeebie"
	"github.com/valerio/jeebug/jeebie/backend/headless"
	"github.com/valerio/jeebug/jeebie/backend/terminal"
	"github.com/valerio/jeebug/jeebie/backend/terminal/render"
	"github.com/valerio/jeebug/jeebie/cartridge"
	"github.com/valerio/jeebug/jeebie/disasm"
	"github.com/valerio/jeebug/jeebie/timing"
)

func runCommand(c *cli.Context) error {
	logger := setupLogger(c)
	session, path, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	limiter, err := timing.New(c.String("pacing"), 0)
	if err != nil {
		return err
	}

	snaps, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), path)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	res, err := headless.Run(ctx, session, headless.Config{
		Frames:    c.Int("frames"),
		Limiter:   limiter,
		Snapshots: snaps,
	})
	fmt.Fprintf(c.App.Writer, "Stopped (%s) after %d frames\n", res.Reason, res.Frames)
	if res.Reason == jeebie.StopBreakpoint || res.Reason == jeebie.StopFault {
		fmt.Fprint(c.App.Writer, session.Snapshot().String())
	}
	for _, p := range res.Snapshots {
		fmt.Fprintf(c.App.Writer, "Snapshot: %s\n", p)
	}
	if out := session.SerialOutput(); out != "" {
		fmt.Fprintf(c.App.Writer, "Serial output:\n%s\n", out)
	}
	return err
}

func debugCommand(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logs := render.NewLogBuffer(500)
	logger := slog.New(render.NewHandler(logs, level))
	slog.SetDefault(logger)

	session, path, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	limiter, err := timing.New(c.String("pacing"), 0)
	if err != nil {
		return err
	}
	defer limiter.Stop()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signalContext()
	defer stop()

	console := terminal.New(screen, session, terminal.Config{
		Limiter:     limiter,
		Logs:        logs,
		SnapshotDir: c.String("snapshot-dir"),
		ROMName:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		StartPaused: c.Bool("paused"),
	})
	return console.Run(ctx)
}

func disasmCommand(c *cli.Context) error {
	logger := setupLogger(c)
	session, _, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	start, err := parseHex(c.String("start"), 16)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}

	for _, line := range session.Disassemble(uint16(start), c.Int("count")) {
		fmt.Fprintln(c.App.Writer, disasm.Format(line, false))
	}
	return nil
}

func infoCommand(c *cli.Context) error {
	setupLogger(c)
	path, err := romPath(c)
	if err != nil {
		return err
	}

	cart, err := cartridge.LoadFile(path)
	if err != nil {
		return err
	}
	writeInfo(c.App.Writer, cart)
	return nil
}

func writeInfo(w io.Writer, cart *cartridge.Cartridge) {
	h := cart.Header()
	f := cart.Features()

	rows := []struct {
		label string
		value string
	}{
		{"Title", h.Title},
		{"Manufacturer", h.ManufacturerCode},
		{"Licensee", h.Licensee()},
		{"Destination", h.Destination()},
		{"Version", fmt.Sprintf("%d", h.Version)},
		{"Type", fmt.Sprintf("0x%02X (%s)", h.CartridgeType, cart.Mapper())},
		{"ROM", fmt.Sprintf("%d KiB, %d banks", h.ROMSize()/1024, cart.ROMBanks())},
		{"RAM", fmt.Sprintf("%d KiB", h.RAMSize()/1024)},
		{"Battery", yesNo(f.Battery)},
		{"RTC", yesNo(f.Timer)},
		{"Rumble", yesNo(f.Rumble)},
		{"CGB", fmt.Sprintf("0x%02X (%s)", h.CGBFlag, yesNo(h.SupportsCGB()))},
		{"SGB", fmt.Sprintf("0x%02X (%s)", h.SGBFlag, yesNo(h.SupportsSGB()))},
		{"Header checksum", fmt.Sprintf("0x%02X", h.HeaderChecksum)},
		{"Global checksum", fmt.Sprintf("0x%04X", h.GlobalChecksum)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s %s\n", r.label+":", r.value)
	}
	for _, warning := range cart.Warnings() {
		fmt.Fprintf(w, "Warning: %v\n", warning)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
