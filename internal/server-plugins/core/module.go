package core

import (
	plugins "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/application"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/core/application"
	"github.com/flowbridge/flowbridge-mcp/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Module("core",
	fx.Provide(
		func(r *plugins.ServerPluginRegistry) application.PluginLister { return r },
		func(b *logger.RingBuffer) application.LogSource { return b },
		application.NewCoreService,
		fx.Annotate(
			NewCoreServerPlugin,
			fx.ResultTags(`group:"server_plugins"`),
		),
	),
)
