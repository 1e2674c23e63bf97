// Package debug provides debug logging functionality using log/slog
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	// logger is the global debug logger instance
	logger *slog.Logger
	// enabled indicates if debug logging is enabled
	enabled bool
	// output receives log lines, stderr unless SetOutput was called
	output io.Writer = os.Stderr
	// jsonFormat switches the handler from text to JSON
	jsonFormat bool
	// mu protects the variables above
	mu sync.RWMutex
)

func init() {
	Init(false)
}

// Init initializes the debug logger
// If enable is true, debug logs are written to the configured output.
// If enable is false, everything is discarded.
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	rebuild()
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	output = w
	rebuild()
}

// SetJSON switches between JSON and text output.
func SetJSON(on bool) {
	mu.Lock()
	defer mu.Unlock()

	jsonFormat = on
	rebuild()
}

// rebuild must be called with mu held.
func rebuild() {
	level := slog.Level(slog.LevelError + 1)
	if enabled {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	logger = slog.New(handler)
}

// Enabled returns whether debug logging is enabled
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

// Debug logs a debug message
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// With returns a logger with the given attributes. Unlike Logger().With, the
// result keeps following later calls to Init and SetOutput.
func With(args ...any) *slog.Logger {
	return slog.New(&globalHandler{}).With(args...)
}

// Component returns a logger tagged with component=name.
func Component(name string) *slog.Logger {
	return With("component", name)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	return current()
}

// globalHandler forwards to whatever handler the global logger has at the time
// a record is handled.
type globalHandler struct {
	wrap []func(slog.Handler) slog.Handler
}

func (h *globalHandler) target() slog.Handler {
	t := current().Handler()
	for _, w := range h.wrap {
		t = w(t)
	}
	return t
}

func (h *globalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return current().Handler().Enabled(ctx, level)
}

func (h *globalHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.target().Handle(ctx, r)
}

func (h *globalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(t slog.Handler) slog.Handler { return t.WithAttrs(attrs) })
}

func (h *globalHandler) WithGroup(name string) slog.Handler {
	return h.with(func(t slog.Handler) slog.Handler { return t.WithGroup(name) })
}

func (h *globalHandler) with(w func(slog.Handler) slog.Handler) *globalHandler {
	wrap := make([]func(slog.Handler) slog.Handler, len(h.wrap), len(h.wrap)+1)
	copy(wrap, h.wrap)
	return &globalHandler{wrap: append(wrap, w)}
}
