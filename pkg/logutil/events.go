package logutil

import (
	"log/slog"
	"time"
)

// DatabaseOperation logs a structured database event.
func DatabaseOperation(log *slog.Logger, operation, query string, duration time.Duration, rows int64) {
	log.Info("database operation",
		"operation", operation,
		"query", Truncate(query, 200),
		"duration", duration,
		"rows", rows,
	)
}

// MessagingOperation logs a structured messaging event.
func MessagingOperation(log *slog.Logger, operation, queue string, bytes int, duration time.Duration) {
	log.Info("messaging operation",
		"operation", operation,
		"queue", queue,
		"bytes", bytes,
		"duration", duration,
	)
}

// FunctionCall logs a function entry at debug level.
func FunctionCall(log *slog.Logger, name string, args ...any) {
	attrs := append([]any{"function", name}, args...)
	log.Debug("function call", attrs...)
}

// Truncate shortens s for log output. Queries can be arbitrarily long and
// full statements belong in traces, not log lines.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
