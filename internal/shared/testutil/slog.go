package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// CapturedRecord is one log record seen by the capture handler.
type CapturedRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that records everything it is handed, so
// tests can assert on structured log output. Handlers derived through
// WithAttrs share the same capture.
type LogCapture struct {
	mu      sync.Mutex
	records []CapturedRecord
}

// NewTestLogger returns a logger wired to a fresh capture handler.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	t.Helper()
	c := &LogCapture{}
	return slog.New(&captureHandler{capture: c}), c
}

type captureHandler struct {
	capture *LogCapture
	base    []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.base))
	for _, a := range h.base {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.capture.mu.Lock()
	defer h.capture.mu.Unlock()
	h.capture.records = append(h.capture.records, CapturedRecord{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.base)+len(attrs))
	merged = append(merged, h.base...)
	merged = append(merged, attrs...)
	return &captureHandler{capture: h.capture, base: merged}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of everything captured so far.
func (c *LogCapture) Records() []CapturedRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Contains reports whether any record's message contains msg.
func (c *LogCapture) Contains(msg string) bool {
	for _, r := range c.Records() {
		if strings.Contains(r.Message, msg) {
			return true
		}
	}
	return false
}
