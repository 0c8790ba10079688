package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEntry is one log record kept for display inside the viewer.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   string // key=value pairs
}

// String renders the entry as a single line.
func (e LogEntry) String() string {
	s := fmt.Sprintf("%s %s %s", e.Time.Format("15:04:05"), FormatLevel(e.Level), e.Message)
	if e.Attrs != "" {
		s += " " + e.Attrs
	}
	return s
}

// ConsoleBuffer is a ring buffer for log entries
type ConsoleBuffer struct {
	entries []LogEntry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

// NewConsoleBuffer creates a ring buffer holding the last capacity entries.
// A capacity below one is treated as one.
func NewConsoleBuffer(capacity int) *ConsoleBuffer {
	capacity = max(capacity, 1)
	return &ConsoleBuffer{
		entries: make([]LogEntry, capacity),
		size:    capacity,
	}
}

// Add adds a log entry to the buffer
func (b *ConsoleBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = entry
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// GetRecent returns the n most recent entries, newest first.
func (b *ConsoleBuffer) GetRecent(n int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = min(n, b.count)
	if n <= 0 {
		return nil
	}
	result := make([]LogEntry, n)
	for i := 0; i < n; i++ {
		result[i] = b.entries[(b.head-1-i+b.size)%b.size]
	}
	return result
}

// Count returns the number of entries in the buffer
func (b *ConsoleBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// ConsoleHandler is a slog handler that appends formatted records to a
// ConsoleBuffer.
type ConsoleHandler struct {
	buffer *ConsoleBuffer
	attrs  []slog.Attr
	group  string
}

// NewConsoleHandler creates a handler that captures logs to the buffer
func NewConsoleHandler(buffer *ConsoleBuffer) *ConsoleHandler {
	return &ConsoleHandler{buffer: buffer}
}

// Enabled follows the package level.
func (h *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= level.Level()
}

// Handle handles the log record
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value.Any()))
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		attrs = append(attrs, fmt.Sprintf("%s=%v", key, a.Value.Any()))
		return true
	})

	h.buffer.Add(LogEntry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   strings.Join(attrs, " "),
	})
	return nil
}

// WithAttrs returns a new handler with the given attributes
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &ConsoleHandler{buffer: h.buffer, attrs: merged, group: h.group}
}

// WithGroup returns a new handler with the given group name
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	return &ConsoleHandler{buffer: h.buffer, attrs: h.attrs, group: name}
}

// CaptureConsole routes the default logger into a new ring buffer of the given
// capacity and returns it. The viewer uses this so that records do not draw
// over the terminal while it owns the screen.
func CaptureConsole(capacity int) *ConsoleBuffer {
	buf := NewConsoleBuffer(capacity)
	setHandler(NewConsoleHandler(buf))
	return buf
}

// FormatLevel returns a short string for the log level
func FormatLevel(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	default:
		return "???"
	}
}
