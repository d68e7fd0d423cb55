package core

// Logger interface for tracer progress logging
type Logger interface {
	Printf(format string, args ...interface{})
}
