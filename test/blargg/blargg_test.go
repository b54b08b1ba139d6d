// Package blargg runs Blargg's cpu_instrs ROMs when they are checked out
// under test-roms and checks the verdict each one prints over the link port.
package blargg

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebug/jeebie"
	"github.com/valerio/jeebug/jeebie/debug"
	"github.com/valerio/jeebug/jeebie/video"
)

const romDir = "../../test-roms/game-boy-test-roms/blargg/cpu_instrs/individual"

type blarggTest struct {
	name      string
	maxFrames int
}

var cpuInstrs = []blarggTest{
	{"01-special", 500},
	{"02-interrupts", 500},
	{"03-op sp,hl", 500},
	{"04-op r,imm", 500},
	{"05-op rp", 500},
	{"06-ld r,r", 500},
	{"07-jr,jp,call,ret,rst", 500},
	{"08-misc instrs", 500},
	{"09-op r,r", 1000},
	{"10-bit ops", 1000},
	{"11-op a,(hl)", 1500},
}

func runBlargg(t *testing.T, tc blarggTest) {
	path := filepath.Join(romDir, tc.name+".gb")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("ROM file not found: %s", path)
	}

	session, err := jeebie.LoadFile(path, jeebie.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	ctx := context.Background()
	for range tc.maxFrames {
		reason, err := session.RunFrame(ctx)
		require.NoError(t, err, "stopped with %s", reason)

		out := session.SerialOutput()
		if strings.Contains(out, "Passed") {
			return
		}
		if strings.Contains(out, "Failed") {
			break
		}
	}

	if os.Getenv("BLARGG_SAVE_SCREENS") == "true" {
		dir := filepath.Join("testdata", "snapshots")
		require.NoError(t, os.MkdirAll(dir, 0o755))

		var frame video.Frame
		session.Frame(&frame)
		if path, err := debug.SaveFramePNG(&frame, tc.name, dir); err == nil {
			t.Logf("Final screen saved to %s", path)
		}
	}
	assert.Fail(t, "ROM did not report success", "serial output:\n%s", session.SerialOutput())
}

func TestCPUInstrs(t *testing.T) {
	for _, tc := range cpuInstrs {
		t.Run(tc.name, func(t *testing.T) {
			runBlargg(t, tc)
		})
	}
}
