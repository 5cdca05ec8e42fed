package artree

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/artree/internal/art"
	"github.com/hupe1980/artree/key"
)

// Logger wraps slog.Logger with artree-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(k key.Key) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", k),
	}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(k key.Key, replaced bool, err error) {
	if err != nil {
		l.Error("insert failed",
			"key", k,
			"error", err,
		)
	} else {
		l.Debug("insert completed",
			"key", k,
			"replaced", replaced,
		)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(k key.Key, found bool) {
	l.Debug("remove completed",
		"key", k,
		"found", found,
	)
}

// LogBatchInsert logs a batch insert operation.
func (l *Logger) LogBatchInsert(ctx context.Context, count, failed int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch insert stopped",
			"total", count,
			"failed", failed,
			"success", count-failed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch insert completed",
			"count", count,
		)
	}
}

// LogContention logs an operation that used up its spin budget and fell back
// to yielding the processor.
func (l *Logger) LogContention(op art.Op, restarts int) {
	l.Warn("high contention",
		"op", op.String(),
		"restarts", restarts,
	)
}

// LogOutOfMemory logs a rejected allocation together with the budget state.
func (l *Logger) LogOutOfMemory(k key.Key, usage, limit int64) {
	l.Error("memory limit reached",
		"key", k,
		"memory_usage", usage,
		"memory_limit", limit,
	)
}

// LogClose logs the shutdown of a tree.
func (l *Logger) LogClose(values int, memory int64, err error) {
	if err != nil {
		l.Error("close failed",
			"error", err,
		)
	} else {
		l.Info("tree closed",
			"values", values,
			"memory_released", memory,
		)
	}
}
