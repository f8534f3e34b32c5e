package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"go.uber.org/fx"
)

// NewCollectorFromConfig returns a Prometheus collector when metrics are
// enabled and a no-op collector otherwise.
func NewCollectorFromConfig(cfg config.MetricsConfig) Collector {
	if !cfg.Enabled {
		return NewNoOpCollector()
	}
	return NewPrometheusCollector()
}

// registerMetricsServer serves /metrics for the lifetime of the app.
func registerMetricsServer(lc fx.Lifecycle, cfg config.MetricsConfig, collector Collector, logger *slog.Logger) {
	prom, ok := collector.(*PrometheusCollector)
	if !ok {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Address)
			if err != nil {
				return err
			}
			logger.Info("Metrics server listening", "address", ln.Addr().String())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down metrics server...")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return collector.Close()
		},
	})
}

var Module = fx.Module("metrics",
	fx.Provide(NewCollectorFromConfig),
	fx.Invoke(registerMetricsServer),
)
