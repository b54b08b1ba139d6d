package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/valerio/jeebug/jeebie"
	"github.com/valerio/jeebug/jeebie/timing"
)

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running jeebug", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "jeebug"
	app.Usage = "a Game Boy emulator with a debugger"
	app.Version = "1.0.0"
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Run a ROM headless for a number of frames",
			ArgsUsage: "<ROM file>",
			Flags: append(sessionFlags(),
				cli.IntFlag{
					Name:  "frames",
					Usage: "Number of frames to run (0 = until a breakpoint or a fault)",
					Value: 60,
				},
				cli.IntFlag{
					Name:  "snapshot-interval",
					Usage: "Save PNG snapshots every N frames (0 = final frame only, when --snapshot-dir is set)",
				},
				cli.StringFlag{
					Name:  "snapshot-dir",
					Usage: "Directory to save PNG snapshots",
				},
				pacingFlag(timing.PacingNone),
			),
			Action: runCommand,
		},
		{
			Name:      "debug",
			Usage:     "Open the terminal debugger",
			ArgsUsage: "<ROM file>",
			Flags: append(sessionFlags(),
				cli.BoolFlag{
					Name:  "paused",
					Usage: "Start with execution paused",
				},
				cli.StringFlag{
					Name:  "snapshot-dir",
					Usage: "Directory for PNG snapshots taken with P (default: working directory)",
				},
				pacingFlag(timing.PacingAdaptive),
			),
			Action: debugCommand,
		},
		{
			Name:      "disasm",
			Usage:     "Disassemble instructions from a ROM",
			ArgsUsage: "<ROM file>",
			Flags: []cli.Flag{
				romFlag,
				verboseFlag,
				cli.StringFlag{
					Name:  "start",
					Usage: "First address, in hex",
					Value: "0x0100",
				},
				cli.IntFlag{
					Name:  "count",
					Usage: "Number of instructions",
					Value: 32,
				},
			},
			Action: disasmCommand,
		},
		{
			Name:      "info",
			Usage:     "Print the cartridge header",
			ArgsUsage: "<ROM file>",
			Flags:     []cli.Flag{romFlag, verboseFlag},
			Action:    infoCommand,
		},
	}
	return app
}

var (
	romFlag = cli.StringFlag{
		Name:  "rom",
		Usage: "Path to the ROM file",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "Log at debug level",
	}
)

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		romFlag,
		verboseFlag,
		cli.StringSliceFlag{
			Name:  "break",
			Usage: "Break before executing the instruction at this hex address (repeatable)",
		},
		cli.StringSliceFlag{
			Name:  "break-opcode",
			Usage: "Break before executing this hex opcode (repeatable)",
		},
	}
}

func pacingFlag(def string) cli.StringFlag {
	return cli.StringFlag{
		Name:  "pacing",
		Usage: "Frame pacing: " + strings.Join(timing.Modes(), ", "),
		Value: def,
	}
}

// romPath takes --rom, falling back to the first positional argument.
func romPath(c *cli.Context) (string, error) {
	if path := c.String("rom"); path != "" {
		return path, nil
	}
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	return "", errors.New("no ROM path provided")
}

func setupLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadSession loads the ROM and installs the breakpoints given on the command line.
func loadSession(c *cli.Context, logger *slog.Logger) (*jeebie.Session, string, error) {
	path, err := romPath(c)
	if err != nil {
		return nil, "", err
	}

	addresses, err := parseList(c.StringSlice("break"), 16)
	if err != nil {
		return nil, "", fmt.Errorf("invalid --break: %w", err)
	}
	opcodes, err := parseList(c.StringSlice("break-opcode"), 8)
	if err != nil {
		return nil, "", fmt.Errorf("invalid --break-opcode: %w", err)
	}

	session, err := jeebie.LoadFile(path, jeebie.WithLogger(logger))
	if err != nil {
		return nil, "", err
	}
	for _, a := range addresses {
		session.SetBreakpoint(uint16(a))
	}
	for _, op := range opcodes {
		session.SetOpcodeBreakpoint(uint8(op))
	}
	return session, path, nil
}

// parseHex accepts 0x1234, $1234 or a bare 1234, all hexadecimal.
func parseHex(s string, bits int) (uint64, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "$")
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	value, err := strconv.ParseUint(trimmed, 16, bits)
	if err != nil {
		return 0, fmt.Errorf("%q is not a %d-bit hex value", s, bits)
	}
	return value, nil
}

func parseList(values []string, bits int) ([]uint64, error) {
	var out []uint64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			n, err := parseHex(part, bits)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
