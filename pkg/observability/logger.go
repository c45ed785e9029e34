package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type Logger struct {
	*slog.Logger
}

// NewLogger returns a JSON logger on stdout tagged with the service name.
func NewLogger(serviceName string) *Logger {
	return NewLoggerTo(os.Stdout, serviceName, slog.LevelInfo)
}

// NewLoggerTo builds a JSON logger writing to w at the given level.
func NewLoggerTo(w io.Writer, serviceName string, level slog.Leveler) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With("service", serviceName)
	return &Logger{logger}
}

// NopLogger discards everything. Handy in tests and for optional collaborators.
func NopLogger() *Logger {
	return NewLoggerTo(io.Discard, "nop", slog.LevelError)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithContext adds the trace and span ids of the active span, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return &Logger{l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())}
}
