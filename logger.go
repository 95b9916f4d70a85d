package scorecache

// Fields carries structured log context (kind, key, group, err, took...).
type Fields map[string]any

// Logger is the leveled logger every component writes through. Adapters for
// logrus, zap and slog live under log/. A nil Logger in any options struct
// disables logging.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
