// Package slogadapter implements the engine logging interfaces on top of Go's
// standard log/slog package, so any slog handler can be plugged into the
// listing engine and the order lifecycle engine without further glue.
package slogadapter

import (
	"context"
	"log/slog"

	"github.com/velora-labs/storefront-engine-go/listing"
	"github.com/velora-labs/storefront-engine-go/order"
)

// Logger implements the plain logging interfaces with a slog.Logger.
type Logger struct {
	logger *slog.Logger
}

// NewLogger wraps an existing slog.Logger. A nil logger falls back to
// slog.Default().
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return &Logger{logger: logger}
}

// NewLoggerWithHandler builds a Logger from a slog.Handler.
func NewLoggerWithHandler(handler slog.Handler) *Logger {
	return &Logger{logger: slog.New(handler)}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// ContextualLogger implements the context-aware logging interfaces with a
// slog.Logger, forwarding the request context so handlers that extract trace
// correlation from it keep working.
type ContextualLogger struct {
	logger *slog.Logger
}

// NewContextualLogger wraps an existing slog.Logger. A nil logger falls back
// to slog.Default().
func NewContextualLogger(logger *slog.Logger) *ContextualLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &ContextualLogger{logger: logger}
}

// DebugContext logs a debug message with context.
func (l *ContextualLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

// InfoContext logs an info message with context.
func (l *ContextualLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message with context.
func (l *ContextualLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context.
func (l *ContextualLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

var (
	_ listing.Logger           = (*Logger)(nil)
	_ order.Logger             = (*Logger)(nil)
	_ listing.ContextualLogger = (*ContextualLogger)(nil)
	_ order.ContextualLogger   = (*ContextualLogger)(nil)
)
