package server

import (
	"log/slog"

	plugins "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/application"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugin/infrastructure"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugin/instrumentation"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/audit"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/metrics"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
)

// NewMCPServerInstance creates a new MCP server instance.
func NewMCPServerInstance(build BuildInfo, logger *slog.Logger) *server.MCPServer {
	logger.Debug("Creating MCP server instance", "version", build.Version)
	mcpServer := server.NewMCPServer(
		ServerName,
		build.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)
	logger.Debug("MCP server instance created successfully")
	return mcpServer
}

// NewInstrumentation wraps every registered tool with metrics and audit
// recording.
func NewInstrumentation(collector metrics.Collector, sink audit.EventSink, logger *slog.Logger) ToolWrapper {
	return func(tool domain.Tool, pluginID string) domain.Tool {
		return instrumentation.WrapTool(tool, pluginID, collector, sink, logger)
	}
}

var Module = fx.Module("server",
	fx.Provide(
		NewMCPServerInstance,
		NewInstrumentation,
		plugins.NewServerPluginRegistry,
		func(dynamicRegistry *plugins.DynamicServerPluginRegistry, mcpServer *server.MCPServer, wrap ToolWrapper, logger *slog.Logger) *MCPAdapter {
			return NewMCPAdapter(dynamicRegistry, mcpServer, wrap, logger)
		},
		infrastructure.NewPluginDiscoveryService,
		plugins.NewDynamicServerPluginRegistry,
	),
	fx.Invoke(registerServerHooks),
	fx.Invoke(func(registry *plugins.DynamicServerPluginRegistry, lc fx.Lifecycle) {
		registry.RegisterHooks(lc)
	}),
)
