package probecarto

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with probecarto-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000),
		})),
	}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// WithBlob adds a blob name field to the logger.
func (l *Logger) WithBlob(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("blob", name),
	}
}

// WithCategory adds a category field to the logger.
func (l *Logger) WithCategory(category int) *Logger {
	return &Logger{
		Logger: l.Logger.With("category", category),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogSave logs a blueprint save.
func (l *Logger) LogSave(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"blob", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "save completed",
			"blob", name,
			"bytes", size,
		)
	}
}

// LogLoad logs a blueprint load.
func (l *Logger) LogLoad(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"blob", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"blob", name,
			"bytes", size,
		)
	}
}

// LogBatch logs a SaveAll or LoadAll run.
func (l *Logger) LogBatch(ctx context.Context, op string, count, failed int, elapsed time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, op+" completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, op+" completed",
			"count", count,
			"elapsed", elapsed,
		)
	}
}

// LogEdit logs a toolkit edit applied through the engine.
func (l *Logger) LogEdit(ctx context.Context, op string, changed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, op+" completed",
			"changed", changed,
		)
	}
}

// LogDelete logs a blob removal.
func (l *Logger) LogDelete(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"blob", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "blob deleted",
			"blob", name,
		)
	}
}
