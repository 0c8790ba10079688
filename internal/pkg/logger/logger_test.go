package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects the logger into a buffer for the length of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Level()
	SetOutput(&buf)
	t.Cleanup(func() {
		level.Set(prev)
		SetOutput(&bytes.Buffer{})
	})
	return &buf
}

func TestLogger_WritesJSON(t *testing.T) {
	buf := capture(t)
	require.NoError(t, SetLevel("info"))

	Warn("Stopped framing capture", "offset", 24, "records", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "Stopped framing capture", rec["msg"])
	assert.Equal(t, float64(24), rec["offset"])
	assert.Equal(t, float64(1), rec["records"])
}

func TestLogger_LevelFilters(t *testing.T) {
	buf := capture(t)
	require.NoError(t, SetLevel("warn"))

	Info("dropped")
	Debug("dropped")
	assert.Empty(t, buf.String())

	Error("kept")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Equal(t, slog.LevelWarn, Level())
}

func TestLogger_ContextAndWith(t *testing.T) {
	buf := capture(t)
	require.NoError(t, SetLevel("debug"))
	ctx := context.Background()

	DebugContext(ctx, "one")
	InfoContext(ctx, "two")
	WarnContext(ctx, "three")
	ErrorContext(ctx, "four")
	With("file", "a.pcap").Info("five")
	WithGroup("frame").Info("six", "number", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[4], `"file":"a.pcap"`)
	assert.Contains(t, lines[5], `"frame":{"number":3}`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Error(t, SetLevel("loud"))
}

func TestGet_ReturnsSameLogger(t *testing.T) {
	assert.NotNil(t, Get())
	assert.Same(t, Get(), Get())
}

func TestConsoleBuffer_Ring(t *testing.T) {
	b := NewConsoleBuffer(3)
	for i, msg := range []string{"a", "b", "c", "d"} {
		b.Add(LogEntry{Time: time.Unix(int64(i), 0), Message: msg})
	}
	assert.Equal(t, 3, b.Count())

	recent := b.GetRecent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].Message)
	assert.Equal(t, "b", recent[2].Message)
	assert.Nil(t, NewConsoleBuffer(0).GetRecent(1))
}

func TestCaptureConsole(t *testing.T) {
	capture(t)
	require.NoError(t, SetLevel("info"))

	buf := CaptureConsole(10)
	Debug("hidden")
	With("file", "a.pcap").WithGroup("ctx").Warn("Stopped framing capture", "offset", 8)

	require.Equal(t, 1, buf.Count())
	e := buf.GetRecent(1)[0]
	assert.Equal(t, slog.LevelWarn, e.Level)
	assert.Equal(t, "file=a.pcap ctx.offset=8", e.Attrs)
	assert.Contains(t, e.String(), "WRN Stopped framing capture file=a.pcap")
}

func TestFormatLevel(t *testing.T) {
	assert.Equal(t, "DBG", FormatLevel(slog.LevelDebug))
	assert.Equal(t, "INF", FormatLevel(slog.LevelInfo))
	assert.Equal(t, "WRN", FormatLevel(slog.LevelWarn))
	assert.Equal(t, "ERR", FormatLevel(slog.LevelError))
	assert.Equal(t, "???", FormatLevel(slog.Level(2)))
}
