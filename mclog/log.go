// Package mclog is a small file-backed debug/trace logger: mutex-guarded,
// per-subsystem filter, timestamped lines. A nil *Logger is valid and logs
// nothing, so the mc core can accept one unconditionally without a
// separate enabled flag.
package mclog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Subsystem names the mc core passes to Logger.Log. Plain strings (not a
// named type) so *Logger satisfies mc's Logger interface structurally
// without mc importing this package.
const (
	Frame     = "frame"
	Transport = "transport"
	Client    = "client"
)

// Logger writes filtered, timestamped lines to a file.
type Logger struct {
	file    *os.File
	mu      sync.Mutex
	closed  bool
	filters map[string]bool // empty == log everything
}

// New opens path (truncating any existing file) for debug logging.
func New(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("mclog: open %s: %w", path, err)
	}
	l := &Logger{file: f, filters: make(map[string]bool)}
	l.Log(Client, "debug logging started %s", time.Now().Format(time.RFC3339))
	return l, nil
}

// SetFilter restricts logging to the given subsystems. An empty list logs
// everything.
func (l *Logger) SetFilter(subsystems ...string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filters = make(map[string]bool, len(subsystems))
	for _, s := range subsystems {
		l.filters[s] = true
	}
}

// Log writes one filtered, timestamped line. A nil Logger is a silent
// no-op, matching the core's "never panics, never blocks a hot path on
// I/O failure" rule.
func (l *Logger) Log(subsystem string, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if len(l.filters) > 0 && !l.filters[subsystem] {
		return
	}
	line := fmt.Sprintf("[%s] %-10s %s\n", time.Now().Format("15:04:05.000"), subsystem, fmt.Sprintf(format, args...))
	// Best-effort: a debug log write must never surface as a client error.
	_, _ = l.file.WriteString(line)
}

// Close flushes and closes the underlying file. Safe to call on a nil
// Logger.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}
