package port

// Logger defines a common logging interface for the application.
// Arguments after msg are alternating keys and values.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a Logger that adds args to every entry.
	With(args ...any) Logger
}
