package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json or text.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
	// LevelVar, when set, is the level the handler consults. Sharing it
	// lets a config watcher change the level of a running logger.
	LevelVar *slog.LevelVar
}

// DefaultConfig returns the configuration used before any file is read.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// New creates a logger. Unknown levels and formats are rejected.
func New(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	lv := cfg.LevelVar
	if lv == nil {
		lv = new(slog.LevelVar)
	}
	lv.Set(level)

	opts := &slog.HandlerOptions{
		Level:     lv,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "console":
		handler = slog.NewTextHandler(output, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	return FromSlog(slog.New(handler)), nil
}

// FromSlog adapts an existing slog logger.
func FromSlog(l *slog.Logger) Logger {
	return &slogLogger{logger: l, ctx: context.Background()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return FromSlog(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.ctx, msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.InfoContext(l.ctx, msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.ctx, msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{
		logger: l.logger.With(args...),
		ctx:    l.ctx,
	}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{
		logger: l.logger,
		ctx:    ctx,
	}
}

// ParseLevel converts a level name to slog.Level. The empty string is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", level)
}

// LevelName is the inverse of ParseLevel.
func LevelName(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	}
	return "error"
}

var defaultLogger atomic.Value

func init() {
	l, _ := New(DefaultConfig())
	defaultLogger.Store(l)
}

// SetDefault replaces the process default logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// Default returns the process default logger.
func Default() Logger {
	return defaultLogger.Load().(Logger)
}
