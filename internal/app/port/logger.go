package port

// Logger defines a common logging interface for the application.
// Arguments after the message are slog-style key/value pairs.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a Logger that adds the given key/value pairs to every entry.
	With(args ...any) Logger
}
