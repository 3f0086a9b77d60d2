package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger logs to stdout.
func NewJSONLogger(service, level string) *slog.Logger {
	return New(os.Stdout, service, level)
}

// NewStderrLogger is for binaries whose stdout carries a protocol, such as
// the MCP stdio server.
func NewStderrLogger(service, level string) *slog.Logger {
	return New(os.Stderr, service, level)
}

func New(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

type loggerContextKey struct{}

// WithLogger stores a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext returns the request-scoped logger, or the default one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
