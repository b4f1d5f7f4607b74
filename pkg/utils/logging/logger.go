package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/m-mizutani/clog"
)

type contextKey struct{}

var (
	loggerKey       = contextKey{}
	defaultLogger   *slog.Logger
	defaultLoggerMu sync.RWMutex
)

// Format selects the log output encoding
type Format string

const (
	// FormatConsole is colored human readable output for terminals
	FormatConsole Format = "console"
	// FormatJSON is one JSON object per line for log collectors
	FormatJSON Format = "json"
)

func init() {
	defaultLogger = New("info", os.Stderr)
}

// parseLevel converts a string level to slog.Level
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		defaultLogger.Warn("invalid log level", "level", level)
		return slog.LevelInfo
	}
}

// New creates a console logger writing to w at level.
// Accepts "debug", "info", "warn", "warning" and "error" in any case.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	handler := clog.New(
		clog.WithWriter(w),
		clog.WithLevel(parseLevel(level)),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
		clog.WithAttrHook(clog.GoerrHook),
	)

	return slog.New(handler)
}

// NewJSON creates a logger emitting JSON lines to w at level
func NewJSON(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// Setup builds a logger for level and format, installs it as the package and slog default and returns it.
// An unknown format falls back to console.
func Setup(level string, format Format, w io.Writer) *slog.Logger {
	var logger *slog.Logger
	switch Format(strings.ToLower(string(format))) {
	case FormatJSON:
		logger = NewJSON(level, w)
	default:
		logger = New(level, w)
	}

	SetDefault(logger)
	slog.SetDefault(logger)
	return logger
}

// ErrAttr is the attribute used for errors in every log record
func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}

func Default() *slog.Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

func SetDefault(logger *slog.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// With returns a new context with the logger attached
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// From retrieves the logger from ctx, or the default logger when none is attached
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return Default()
}
