// Package headless runs a session without a display, for batch runs and
// automated checks.
package headless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/jeebug/jeebie"
	"github.com/valerio/jeebug/jeebie/debug"
	"github.com/valerio/jeebug/jeebie/timing"
	"github.com/valerio/jeebug/jeebie/video"
)

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N frames; 0 saves only the last frame
	Directory string // Directory to save snapshots
	ROMName   string // ROM name for snapshot filenames
}

// Config controls a headless run.
type Config struct {
	// Frames to run; zero runs until a breakpoint, a fault or cancellation.
	Frames    int
	Limiter   timing.Limiter
	Snapshots SnapshotConfig
}

// Result describes how a run ended.
type Result struct {
	Frames    int
	Reason    jeebie.StopReason
	Snapshots []string
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters.
// Naming a directory without an interval captures just the final frame.
func CreateSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0 || directory != "",
		Interval: max(interval, 0),
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "jeebug-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	config.ROMName = strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	return config, nil
}

type runner struct {
	session *jeebie.Session
	cfg     Config
	limiter timing.Limiter
	frame   video.Frame
	result  Result
}

// Run executes frames until the configured count, a breakpoint, a fault, or
// ctx is done. Reaching the frame count reports StopFrame.
func Run(ctx context.Context, session *jeebie.Session, cfg Config) (Result, error) {
	r := &runner{session: session, cfg: cfg, limiter: cfg.Limiter}
	if r.limiter == nil {
		r.limiter = timing.NewNoOpLimiter()
	}
	defer r.limiter.Stop()
	r.limiter.Reset()

	slog.Info("Running headless",
		"frames", cfg.Frames,
		"snapshot_interval", cfg.Snapshots.Interval,
		"snapshot_dir", cfg.Snapshots.Directory)

	err := r.loop(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Info("Headless run canceled", "frames", r.result.Frames)
		return r.result, nil
	}
	return r.result, err
}

func (r *runner) loop(ctx context.Context) error {
	for r.cfg.Frames <= 0 || r.result.Frames < r.cfg.Frames {
		reason, err := r.session.RunFrame(ctx)
		r.result.Reason = reason

		switch reason {
		case jeebie.StopFrame:
		case jeebie.StopBreakpoint:
			hit := r.session.LastHit()
			slog.Info("Stopped at breakpoint",
				"kind", hit.Kind.String(),
				"pc", fmt.Sprintf("0x%04X", hit.Address),
				"frames", r.result.Frames)
			r.finalSnapshot()
			return nil
		default:
			r.finalSnapshot()
			return err
		}

		r.result.Frames++
		if r.intervalDue() {
			r.saveSnapshot()
		}
		if r.result.Frames%60 == 0 {
			slog.Debug("Frame progress", "completed", r.result.Frames, "total", r.cfg.Frames)
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	r.finalSnapshot()
	slog.Info("Headless execution completed", "frames", r.result.Frames, "snapshots", len(r.result.Snapshots))
	return nil
}

// finalSnapshot saves the last frame unless the interval just did.
func (r *runner) finalSnapshot() {
	if r.cfg.Snapshots.Enabled && r.result.Frames > 0 && !r.intervalDue() {
		r.saveSnapshot()
	}
}

func (r *runner) intervalDue() bool {
	snaps := r.cfg.Snapshots
	return snaps.Enabled && snaps.Interval > 0 && r.result.Frames%snaps.Interval == 0
}

// saveSnapshot saves a PNG snapshot for the current frame
func (r *runner) saveSnapshot() {
	r.session.Frame(&r.frame)
	base := fmt.Sprintf("%s_frame_%d", r.cfg.Snapshots.ROMName, r.result.Frames)

	path, err := debug.SaveFramePNG(&r.frame, base, r.cfg.Snapshots.Directory)
	if err != nil {
		slog.Error("Failed to save PNG snapshot", "frame", r.result.Frames, "error", err)
		return
	}
	r.result.Snapshots = append(r.result.Snapshots, path)
}
