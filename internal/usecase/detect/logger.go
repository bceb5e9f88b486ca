package detect

// Logger is the minimal structured logging port used by the orchestrator.
// Fields are alternating key/value pairs.
type Logger interface {
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Debug(msg string, fields ...any)
}

// nopLogger discards everything. Installed when no logger is configured.
type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
