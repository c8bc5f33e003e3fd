// Package logger provides structured logging capabilities for the paytrust gateway.
// The Logger interface is backed by zap in production and by a no-op logger in tests.
package logger

import (
	"context"
	"strings"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Fields is a set of structured key-value pairs attached to a log entry
type Fields map[string]interface{}

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields ...Fields)

	// Info logs an informational message
	Info(ctx context.Context, msg string, fields ...Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields ...Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields creates a new logger with additional fields
	WithFields(fields Fields) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger
}

// ================================================================================
// Field Helpers
// ================================================================================

// Merge flattens several field sets into one, later keys win.
func Merge(fields ...Fields) Fields {
	out := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

// Sanitize returns a copy of fields with sensitive values masked.
func Sanitize(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = sanitizeValue(k, v)
	}
	return out
}

// sensitiveKeys are matched as substrings of the lowercased field key
var sensitiveKeys = []string{
	"password",
	"secret",
	"signature",
	"token",
	"api_key",
	"authorization",
	"private_key",
}

// sanitizeValue sanitizes sensitive field values
func sanitizeValue(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range sensitiveKeys {
		if strings.Contains(keyLower, sensitiveKey) {
			if str, ok := value.(string); ok && len(str) > 0 {
				return maskString(str)
			}
			return "***REDACTED***"
		}
	}
	return value
}

// maskString partially masks a string value
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}

	// Show first 4 and last 4 characters
	return s[:4] + "***" + s[len(s)-4:]
}

// ================================================================================
// Global Logger Instance
// ================================================================================

var globalLogger Logger = NewNoopLogger()

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(l Logger) {
	if l == nil {
		l = NewNoopLogger()
	}
	globalLogger = l
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() Logger {
	return globalLogger
}

//Personal.AI order the ending
