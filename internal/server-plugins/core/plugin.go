package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	serverDomain "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/core/application"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultLogLines = 100

// CoreServerPlugin describes the server itself. It cannot be disabled.
type CoreServerPlugin struct {
	coreService *application.CoreService
	logger      *slog.Logger
}

func NewCoreServerPlugin(coreService *application.CoreService, logger *slog.Logger) serverDomain.ServerPlugin {
	return &CoreServerPlugin{
		coreService: coreService,
		logger:      logger,
	}
}

func (p *CoreServerPlugin) ID() string   { return "core" }
func (p *CoreServerPlugin) Name() string { return "Core" }
func (p *CoreServerPlugin) Description() string {
	return "Server information, active plugins and recent logs"
}
func (p *CoreServerPlugin) Version() string { return "0.1.0" }
func (p *CoreServerPlugin) Essential() bool { return true }

// ResourceProvider implementation
func (p *CoreServerPlugin) GetResources(ctx context.Context) ([]serverDomain.Resource, error) {
	p.logger.Debug("Core plugin: Getting MCP resources")

	return []serverDomain.Resource{
		{
			URI:         "flowbridge://core/server/info",
			Name:        "Server Information",
			Description: "Version, transport, limits and active plugins",
			MIMEType:    "application/json",
			Handler:     p.handleServerInfoResource,
		},
		{
			URI:         "flowbridge://core/logs/recent",
			Name:        "Recent Logs",
			Description: "Most recent server log lines with credentials redacted. Append ?lines=N to limit",
			MIMEType:    "application/json",
			Handler:     p.handleRecentLogsResource,
		},
	}, nil
}

func (p *CoreServerPlugin) handleServerInfoResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, p.coreService.GetServerInfo(ctx), "server information")
}

func (p *CoreServerPlugin) handleRecentLogsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	n := defaultLogLines
	if u, err := url.Parse(req.Params.URI); err == nil {
		if raw := u.Query().Get("lines"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				return nil, fmt.Errorf("invalid lines parameter %q", raw)
			}
			n = parsed
		}
	}
	return jsonContents(req.Params.URI, p.coreService.GetRecentLogs(ctx, n), "recent logs")
}

func jsonContents(uri string, v any, what string) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", what, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
