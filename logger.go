package vectab

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vectab-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTable adds a table name field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogCreateTable logs a table creation.
func (l *Logger) LogCreateTable(ctx context.Context, name string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create table failed",
			"table", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table created",
			"table", name,
			"rows", rows,
		)
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, name, mode string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"table", name,
			"mode", mode,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"table", name,
			"mode", mode,
			"rows", rows,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, name string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"table", name,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"table", name,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, name string, deleted int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"table", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"table", name,
			"deleted", deleted,
		)
	}
}

// LogDropTable logs a table drop.
func (l *Logger) LogDropTable(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "drop table failed",
			"table", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table dropped",
			"table", name,
		)
	}
}
