package fxapp

import (
	"log"

	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	"github.com/flowbridge/flowbridge-mcp/internal/server"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/core"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/audit"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/metrics"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"github.com/flowbridge/flowbridge-mcp/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func New(build server.BuildInfo) *fx.App {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	return fx.New(Options(cfg, build)...)
}

// Options assembles the application graph for cfg.
func Options(cfg *config.ServerConfig, build server.BuildInfo) []fx.Option {
	// Default to a verbose logger for debug level
	var fxLogger fx.Option = fx.WithLogger(
		func() fxevent.Logger {
			return &fxevent.ConsoleLogger{W: log.Writer()}
		},
	)

	if cfg.LogLevel != "debug" {
		fxLogger = fx.NopLogger
	}

	return []fx.Option{
		fxLogger,
		fx.Supply(cfg, build),
		config.Module,
		logger.Module,
		metrics.Module,
		audit.Module,
		files.Module,
		server.Module,
		core.Module,
		workflow.Module,
		editor.Module,
	}
}
