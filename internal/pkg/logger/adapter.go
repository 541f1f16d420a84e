package logger

import (
	"log/slog"

	"solana_tokens/internal/app/port"
)

// slogAdapter implements port.Logger on top of a slog.Logger.
// A nil inner logger routes through the package-level logger.
type slogAdapter struct {
	inner *slog.Logger
}

// NewSlogAdapter returns a port.Logger that writes through the global logger.
func NewSlogAdapter() port.Logger {
	return &slogAdapter{}
}

// NewAdapter wraps an explicit slog.Logger.
func NewAdapter(l *slog.Logger) port.Logger {
	return &slogAdapter{inner: l}
}

func (a *slogAdapter) logger() *slog.Logger {
	if a.inner != nil {
		return a.inner
	}
	return current()
}

// Info logs an informational message.
func (a *slogAdapter) Info(msg string, args ...any) {
	a.logger().Info(msg, args...)
}

// Debug logs a debug message.
func (a *slogAdapter) Debug(msg string, args ...any) {
	a.logger().Debug(msg, args...)
}

// Warn logs a warning.
func (a *slogAdapter) Warn(msg string, args ...any) {
	a.logger().Warn(msg, args...)
}

// Error logs an error message.
func (a *slogAdapter) Error(msg string, args ...any) {
	a.logger().Error(msg, args...)
}

// With returns an adapter that adds args to every entry.
func (a *slogAdapter) With(args ...any) port.Logger {
	return &slogAdapter{inner: a.logger().With(args...)}
}
