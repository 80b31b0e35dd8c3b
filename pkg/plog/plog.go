// Package plog provides the process-wide structured logger.
//
// Records at warn level and above go to stderr, everything else to stdout.
// The notice level sits between debug and info and carries the per-entry
// operation lines (Copied, Renamed, Deleted, Ignored); verbose runs lower
// the global level to notice to surface them.
package plog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// LevelNotice is the custom level for per-entry operation lines.
// It is below info so that notices are hidden unless verbose output is requested.
const LevelNotice = slog.Level(-2)

// LevelDispatchHandler is a slog.Handler that writes log records to different
// handlers based on the record's level. INFO and below go to one handler,
// while WARNING and above go to another. An optional third handler (the log
// file sink) receives every record regardless of level.
type LevelDispatchHandler struct {
	stdoutHandler slog.Handler
	stderrHandler slog.Handler
	fileHandler   slog.Handler
}

// Enabled checks if the level is enabled for any of the underlying handlers.
func (h *LevelDispatchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.stdoutHandler.Enabled(ctx, level) || h.stderrHandler.Enabled(ctx, level) {
		return true
	}
	return h.fileHandler != nil && h.fileHandler.Enabled(ctx, level)
}

// Handle dispatches the record to the appropriate handler.
func (h *LevelDispatchHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if r.Level >= slog.LevelWarn {
		if h.stderrHandler.Enabled(ctx, r.Level) {
			err = h.stderrHandler.Handle(ctx, r)
		}
	} else if h.stdoutHandler.Enabled(ctx, r.Level) {
		err = h.stdoutHandler.Handle(ctx, r)
	}
	if h.fileHandler != nil && h.fileHandler.Enabled(ctx, r.Level) {
		if ferr := h.fileHandler.Handle(ctx, r.Clone()); err == nil {
			err = ferr
		}
	}
	return err
}

// WithAttrs returns a new LevelDispatchHandler with the given attributes added.
func (h *LevelDispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		stderrHandler: h.stderrHandler.WithAttrs(attrs),
	}
	if h.fileHandler != nil {
		n.fileHandler = h.fileHandler.WithAttrs(attrs)
	}
	return n
}

// WithGroup returns a new LevelDispatchHandler with the given group.
func (h *LevelDispatchHandler) WithGroup(name string) slog.Handler {
	n := &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		stderrHandler: h.stderrHandler.WithGroup(name),
	}
	if h.fileHandler != nil {
		n.fileHandler = h.fileHandler.WithGroup(name)
	}
	return n
}

var (
	mu            sync.Mutex
	level         = new(slog.LevelVar)
	defaultLogger *slog.Logger
	logFile       io.WriteCloser
)

func init() {
	level.Set(slog.LevelInfo)
	mu.Lock()
	defer mu.Unlock()
	rebuildLocked(false, nil)
}

// rebuildLocked reassembles the default logger. mu must be held.
func rebuildLocked(color bool, fileSink io.Writer) {
	var stdoutHandler slog.Handler
	if color {
		stdoutHandler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:   level,
			NoColor: !isatty.IsTerminal(os.Stdout.Fd()),
		})
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})

	h := &LevelDispatchHandler{
		stdoutHandler: stdoutHandler,
		stderrHandler: stderrHandler,
	}
	if fileSink != nil {
		// The file sink records everything from notice upward, independent of
		// the console level.
		h.fileHandler = slog.NewTextHandler(fileSink, &slog.HandlerOptions{Level: LevelNotice})
	}
	defaultLogger = slog.New(h)
}

// SetLevel sets the minimum level for console output.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetColor enables or disables the colored stdout handler.
func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	var sink io.Writer
	if logFile != nil {
		sink = logFile
	}
	rebuildLocked(enabled, sink)
}

// SetLogFile attaches an append-mode log file sink. Passing the empty string
// detaches and closes any current sink.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if path == "" {
		rebuildLocked(false, nil)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	logFile = f
	rebuildLocked(false, f)
	return nil
}

// SetOutput redirects all logger output to the given writer, primarily for
// testing. The level is lowered to debug so tests observe every record.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level.Set(slog.LevelDebug)
	defaultLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LevelFromString maps a configuration string to a slog level.
// Unknown strings fall back to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "notice":
		return LevelNotice
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logAt(l slog.Level, msg string, args ...any) {
	mu.Lock()
	logger := defaultLogger
	mu.Unlock()
	logger.Log(context.Background(), l, msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { logAt(slog.LevelDebug, msg, args...) }

// Notice logs a per-entry operation message.
func Notice(msg string, args ...any) { logAt(LevelNotice, msg, args...) }

// Info logs an informational message.
func Info(msg string, args ...any) { logAt(slog.LevelInfo, msg, args...) }

// Warn logs a warning message.
func Warn(msg string, args ...any) { logAt(slog.LevelWarn, msg, args...) }

// Error logs an error message.
func Error(msg string, args ...any) { logAt(slog.LevelError, msg, args...) }
