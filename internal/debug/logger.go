// Package debug is the process-wide structured logger shared by the props
// engine, the content stores and the CLI.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger  *slog.Logger
	enabled bool
	output  io.Writer = os.Stderr
	mu      sync.RWMutex
)

func init() {
	Init(false)
}

// Init switches debug logging on or off.
// When disabled, every record is dropped by the handler level.
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	logger = newLogger(output, enable)
}

// SetOutput redirects log records, mostly useful in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	logger = newLogger(output, enabled)
}

func newLogger(w io.Writer, enable bool) *slog.Logger {
	level := slog.LevelDebug
	if !enable {
		level = slog.LevelError + 1
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs an info message.
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs a warning.
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs an error.
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Component returns a logger tagged with the subsystem name, e.g.
// "planner" or "tree".
func Component(name string) *slog.Logger {
	return current().With("component", name)
}

// Logger returns the underlying slog.Logger.
func Logger() *slog.Logger {
	return current()
}
