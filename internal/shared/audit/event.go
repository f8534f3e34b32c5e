package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded tool call.
type Event struct {
	Timestamp    time.Time
	Action       string
	Resource     string
	Parameters   map[string]interface{}
	Result       string
	ErrorMessage string
	Duration     time.Duration
	RequestID    string
	Metadata     map[string]string
}

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

type EventSink interface {
	Record(ctx context.Context, event Event) error
	Close() error
}

// NewRequestID returns a random identifier for correlating a call's log lines.
func NewRequestID() string {
	return uuid.NewString()
}

type NoOpSink struct{}

func NewNoOpSink() *NoOpSink {
	return &NoOpSink{}
}

func (s *NoOpSink) Record(ctx context.Context, event Event) error {
	return nil
}

func (s *NoOpSink) Close() error {
	return nil
}

// SlogSink writes events as structured log records in the "audit" group.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger.WithGroup("audit")}
}

func (s *SlogSink) Record(ctx context.Context, event Event) error {
	attrs := []slog.Attr{
		slog.String("request_id", event.RequestID),
		slog.String("action", event.Action),
		slog.String("result", event.Result),
		slog.Duration("duration", event.Duration),
	}
	if event.Resource != "" {
		attrs = append(attrs, slog.String("resource", event.Resource))
	}
	if event.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error", event.ErrorMessage))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}

	level := slog.LevelInfo
	if event.Result == ResultError {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "Tool call", attrs...)
	return nil
}

func (s *SlogSink) Close() error {
	return nil
}
