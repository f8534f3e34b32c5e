package audit

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
)

func newEventSink(lc fx.Lifecycle, logger *slog.Logger) EventSink {
	sink := NewSlogSink(logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sink.Close()
		},
	})
	return sink
}

var Module = fx.Module("audit",
	fx.Provide(newEventSink),
)
