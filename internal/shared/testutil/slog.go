// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogRecord is one captured log line.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that buffers records so tests can assert
// on what a component logged. All levels are captured.
type LogCapture struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewTestLogger returns a logger wired to a fresh capture.
func NewTestLogger() (*slog.Logger, *LogCapture) {
	capture := &LogCapture{}
	return slog.New(capture), capture
}

// Handle implements slog.Handler.
func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled implements slog.Handler.
func (c *LogCapture) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler. Bound attributes are dropped; the
// tests here assert on inline attributes only.
func (c *LogCapture) WithAttrs(_ []slog.Attr) slog.Handler {
	return c
}

// WithGroup implements slog.Handler.
func (c *LogCapture) WithGroup(_ string) slog.Handler {
	return c
}

// Records returns a copy of everything captured so far.
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]LogRecord, len(c.records))
	copy(records, c.records)
	return records
}

// ByLevel returns the captured records at the given level.
func (c *LogCapture) ByLevel(level slog.Level) []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var filtered []LogRecord
	for _, r := range c.records {
		if r.Level == level {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Contains reports whether any captured message contains the substring.
func (c *LogCapture) Contains(message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// HasAttr reports whether any captured record carries the attribute.
func (c *LogCapture) HasAttr(key string, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}
