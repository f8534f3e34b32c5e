package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"go.uber.org/fx"
)

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRingBufferFromConfig sizes the recent-log buffer from log_buffer_size.
func NewRingBufferFromConfig(cfg *config.ServerConfig) *RingBuffer {
	return NewRingBuffer(cfg.LogBufferSize)
}

// NewSlogLogger writes to stderr. stdout belongs to the stdio transport.
func NewSlogLogger(cfg *config.ServerConfig, buffer *RingBuffer) *slog.Logger {
	return New(os.Stderr, cfg.LogLevel, cfg.LogFormat, buffer)
}

// New builds a logger on w. A nil buffer disables the recent-log tee.
func New(w io.Writer, level, format string, buffer *RingBuffer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if buffer != nil {
		handler = newTeeHandler(handler, buffer, opts)
	}

	return slog.New(handler)
}

var Module = fx.Module("logger",
	fx.Provide(
		NewRingBufferFromConfig,
		NewSlogLogger,
	),
)
