// Package log provides a structured logging interface for goknn.
//
// The Logger interface mirrors the method set of log/slog so the backend can
// be swapped without touching call sites. The default provider is backed by
// zerolog and writes JSON lines to stderr; tests install a TestLoggerProvider
// to capture and inspect records.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("knn").With(
//	    log.KKey, 5,
//	    log.BackendKey, "vectorized",
//	)
//	logger.Debug("classification started",
//	    log.OperationKey, log.OperationClassify,
//	    log.QueriesKey, 70,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with log/slog.
//
// Fields are alternating key/value pairs. Error additionally accepts an error
// as its first field, which is recorded under the "error" key.
type Logger interface {
	// Debug logs detailed diagnostic information, normally disabled in production.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs a condition that does not stop the operation.
	Warn(msg string, fields ...any)

	// Error logs an error condition.
	//
	// Example:
	//   logger.Error("classification failed",
	//       err,
	//       log.OperationKey, log.OperationClassify,
	//   )
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether a record at level would be emitted. Use it to
	// skip building expensive fields.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. The package-level provider
// can be replaced with SetLoggerProvider.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
