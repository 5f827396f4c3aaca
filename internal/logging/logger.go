// Package logging defines the structured-logging interface used across
// gophauth and its slog and zerolog implementations.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "token rotated", "user_id", id, "jti", jti)
type Logger interface {
	// Debug logs diagnostic detail that is off in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported backends.
const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New builds a Logger for the given backend writing to w.
// Level is one of debug, info, warn, error (case-insensitive).
func New(backend, format, level string, w io.Writer) (Logger, error) {
	if format != FormatJSON && format != FormatText {
		return nil, fmt.Errorf("unsupported log format %q", format)
	}

	switch strings.ToLower(backend) {
	case BackendSlog, "":
		return newSlog(format, level, w)
	case BackendZerolog:
		return newZerolog(format, level, w)
	default:
		return nil, fmt.Errorf("unsupported log backend %q", backend)
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) Logger                  { return n }
