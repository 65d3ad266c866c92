// Package log provides structured logging for ledgersmith.
//
// It defines a small Logger interface backed by stdlib slog so that every
// subsystem can accept a logger via functional options and tests can inject
// a noop. Synthesis progress goes to stdout; diagnostic logging goes to
// stderr at a verbosity chosen by CLI flags:
//
//   - ERROR (--quiet): errors only
//   - WARN (default): warnings and user output
//   - INFO (--verbose): per-attempt progress and evidence summaries
//   - DEBUG (--debug): prompts, raw responses, process details
package log

import (
	"io"
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Method signatures match slog for easy interoperability.
type Logger interface {
	// Debug logs internal detail: composed prompts, raw model output,
	// sandbox command lines.
	Debug(msg string, args ...any)

	// Info logs operational context such as "attempt 2 failed validation".
	Info(msg string, args ...any)

	// Warn logs recoverable issues like a provider falling back.
	Warn(msg string, args ...any)

	// Error logs failures that end the run.
	Error(msg string, args ...any)

	// With returns a Logger carrying additional key-value context,
	// typically the task name and attempt index.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewText creates a Logger writing human-readable lines to w at the given
// level. This is what main() uses for stderr diagnostics.
func NewText(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// noopLogger discards all output. Used in tests and as the default until
// SetDefault is called.
type noopLogger struct{}

// NewNoop returns a logger that discards everything.
func NewNoop() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the global logger configured at startup.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the global logger. Called once from main() after the
// verbosity flags are parsed.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
