package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DynamicServerPluginProvider lists the plugins that should be exposed.
type DynamicServerPluginProvider interface {
	GetActiveServerPlugins() []domain.ServerPlugin
}

// ToolWrapper decorates a plugin tool before it is registered.
type ToolWrapper func(tool domain.Tool, pluginID string) domain.Tool

// registration is what one plugin added to the MCP server.
type registration struct {
	resources []string
	tools     []string
	prompts   []string
}

// MCPAdapter keeps the MCP server's resources, tools and prompts in step with
// the active plugins, remembering what each plugin added so it can be removed.
type MCPAdapter struct {
	dynamicRegistry DynamicServerPluginProvider
	mcpServer       *server.MCPServer
	wrap            ToolWrapper
	logger          *slog.Logger

	mu         sync.Mutex
	registered map[string]registration
}

// NewMCPAdapter returns an adapter; a nil wrap registers tools unchanged.
func NewMCPAdapter(dynamicRegistry DynamicServerPluginProvider, mcpServer *server.MCPServer, wrap ToolWrapper, logger *slog.Logger) *MCPAdapter {
	if wrap == nil {
		wrap = func(tool domain.Tool, _ string) domain.Tool { return tool }
	}
	return &MCPAdapter{
		dynamicRegistry: dynamicRegistry,
		mcpServer:       mcpServer,
		wrap:            wrap,
		logger:          logger,
		registered:      make(map[string]registration),
	}
}

// RegisterAllServerPlugins adds the capabilities of newly active plugins and
// removes those of deactivated ones. Repeated calls are idempotent.
func (a *MCPAdapter) RegisterAllServerPlugins(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	active := make(map[string]bool)
	for _, plugin := range a.dynamicRegistry.GetActiveServerPlugins() {
		active[plugin.ID()] = true
		if _, done := a.registered[plugin.ID()]; done {
			continue
		}
		a.registered[plugin.ID()] = a.registerServerPlugin(ctx, plugin)
	}

	for id, reg := range a.registered {
		if active[id] {
			continue
		}
		a.unregister(id, reg)
		delete(a.registered, id)
	}

	a.logger.Info("MCP capabilities synchronized", "plugins", len(a.registered))
	return nil
}

// RegisteredTools returns the tool names added for a plugin.
func (a *MCPAdapter) RegisteredTools(pluginID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registered[pluginID].tools
}

// registerServerPlugin adds one plugin's capabilities. A provider that fails
// to list a capability kind only loses that kind.
func (a *MCPAdapter) registerServerPlugin(ctx context.Context, plugin domain.ServerPlugin) registration {
	var reg registration

	if resourceProvider, ok := plugin.(domain.ResourceProvider); ok {
		resources, err := resourceProvider.GetResources(ctx)
		if err != nil {
			a.logger.Error("Plugin resources unavailable",
				"plugin", plugin.ID(), "error", err)
		}
		for _, resource := range resources {
			mcpResource := mcp.NewResource(
				resource.URI,
				resource.Name,
				mcp.WithResourceDescription(resource.Description),
				mcp.WithMIMEType(resource.MIMEType),
			)
			a.mcpServer.AddResource(mcpResource, resource.Handler)
			reg.resources = append(reg.resources, resource.URI)
			a.logger.Debug("Resource registered",
				"plugin", plugin.ID(),
				"resource", resource.Name,
				"uri", resource.URI)
		}
	}

	if toolProvider, ok := plugin.(domain.ToolProvider); ok {
		tools, err := toolProvider.GetTools(ctx)
		if err != nil {
			a.logger.Error("Plugin tools unavailable",
				"plugin", plugin.ID(), "error", err)
		}
		for _, tool := range tools {
			tool = a.wrap(tool, plugin.ID())
			a.mcpServer.AddTool(tool.Builder(), tool.Handler)
			reg.tools = append(reg.tools, tool.Name)
			a.logger.Debug("Tool registered",
				"plugin", plugin.ID(),
				"tool", tool.Name)
		}
	}

	if promptProvider, ok := plugin.(domain.PromptProvider); ok {
		prompts, err := promptProvider.GetPrompts(ctx)
		if err != nil {
			a.logger.Error("Plugin prompts unavailable",
				"plugin", plugin.ID(), "error", err)
		}
		for _, prompt := range prompts {
			a.mcpServer.AddPrompt(prompt.Builder(), prompt.Handler)
			reg.prompts = append(reg.prompts, prompt.Name)
			a.logger.Debug("Prompt registered",
				"plugin", plugin.ID(),
				"prompt", prompt.Name)
		}
	}

	a.logger.Debug("Plugin capabilities added",
		"plugin", plugin.ID(),
		"resources", len(reg.resources),
		"tools", len(reg.tools),
		"prompts", len(reg.prompts))
	return reg
}

func (a *MCPAdapter) unregister(pluginID string, reg registration) {
	for _, uri := range reg.resources {
		a.mcpServer.RemoveResource(uri)
	}
	if len(reg.tools) > 0 {
		a.mcpServer.DeleteTools(reg.tools...)
	}
	if len(reg.prompts) > 0 {
		a.mcpServer.DeletePrompts(reg.prompts...)
	}
	a.logger.Info("Plugin capabilities removed", "plugin", pluginID,
		"resources", len(reg.resources),
		"tools", len(reg.tools),
		"prompts", len(reg.prompts))
}
