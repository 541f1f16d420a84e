package logger

import (
	"log/slog"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
)

// NewZapBridge returns a slog.Logger whose records are written by zapLogger.
func NewZapBridge(zapLogger *zap.Logger, levelStr string) *slog.Logger {
	level, _ := ParseLevel(levelStr)
	handler := slogzap.Option{
		Level:  level,
		Logger: zapLogger,
	}.NewZapHandler()
	return slog.New(handler)
}
