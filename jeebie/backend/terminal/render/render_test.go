package render

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebug/jeebie/video"
)

func TestLogBufferWraps(t *testing.T) {
	lb := NewLogBuffer(3)
	for i, msg := range []string{"a", "b", "c", "d"} {
		lb.Add(LogEntry{Level: slog.Level(i*4 - 4), Message: msg})
	}

	assert.Equal(t, 3, lb.Len())

	var got []string
	for _, e := range lb.Recent(0, slog.LevelDebug) {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"d", "c", "b"}, got)

	filtered := lb.Recent(0, slog.LevelWarn)
	require.Len(t, filtered, 2)
	assert.Equal(t, "d", filtered[0].Message)

	assert.Len(t, lb.Recent(1, slog.LevelDebug), 1)

	lb.Clear()
	assert.Empty(t, lb.Recent(0, slog.LevelDebug))
}

func TestHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	var level slog.LevelVar
	level.Set(slog.LevelInfo)
	logger := slog.New(NewHandler(lb, &level))

	logger.Debug("hidden")
	logger.Info("Breakpoint hit", "pc", "0x0150")
	logger.With("rom", "tetris").WithGroup("cpu").Warn("Fault", "opcode", 0xD3, slog.Group("regs", "a", 1))

	entries := lb.Recent(0, slog.LevelDebug)
	require.Len(t, entries, 2)
	assert.Equal(t, "Fault rom=tetris cpu.opcode=211 cpu.regs.a=1", entries[0].Message)
	assert.Equal(t, "Breakpoint hit pc=0x0150", entries[1].Message)

	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
	level.Set(slog.LevelDebug)
	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestFormatLogEntry(t *testing.T) {
	when := time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC)
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "13:04:05 [DBG] msg"},
		{slog.LevelInfo, "13:04:05 [INF] msg"},
		{slog.LevelWarn, "13:04:05 [WRN] msg"},
		{slog.LevelError, "13:04:05 [ERR] msg"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLogEntry(LogEntry{Time: when, Level: tt.level, Message: "msg"}))
		})
	}
}

func TestFrameCells(t *testing.T) {
	var frame video.Frame
	frame[0] = 3
	frame[video.FramebufferWidth+1] = 2
	frame[2] = 1
	frame[video.FramebufferWidth+2] = 1

	cells := FrameCells(&frame)
	require.Len(t, cells, video.FramebufferHeight/2)
	require.Len(t, cells[0], video.FramebufferWidth)

	assert.Equal(t, Cell{'▀', 3, 0}, cells[0][0])
	assert.Equal(t, Cell{'▀', 0, 2}, cells[0][1])
	assert.Equal(t, Cell{'█', 1, 1}, cells[0][2])
	assert.Equal(t, Cell{'█', 0, 0}, cells[1][0])
}
