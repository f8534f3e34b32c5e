package domain

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerPlugin is a named bundle of MCP capabilities. A plugin exposes
// capabilities by also implementing one or more of the provider interfaces
// below; the server adapter type-switches on them at registration time.
type ServerPlugin interface {
	ID() string
	Name() string
	Description() string
	Version() string

	// Essential plugins ignore plugins.disabled.
	Essential() bool
}

type ResourceProvider interface {
	ServerPlugin
	GetResources(ctx context.Context) ([]Resource, error)
}

type ToolProvider interface {
	ServerPlugin
	GetTools(ctx context.Context) ([]Tool, error)
}

type PromptProvider interface {
	ServerPlugin
	GetPrompts(ctx context.Context) ([]Prompt, error)
}

const (
	CapabilityResources = "resources"
	CapabilityTools     = "tools"
	CapabilityPrompts   = "prompts"
)

// Capabilities lists the provider interfaces p implements, in a stable order.
func Capabilities(p ServerPlugin) []string {
	caps := []string{}
	if _, ok := p.(ResourceProvider); ok {
		caps = append(caps, CapabilityResources)
	}
	if _, ok := p.(ToolProvider); ok {
		caps = append(caps, CapabilityTools)
	}
	if _, ok := p.(PromptProvider); ok {
		caps = append(caps, CapabilityPrompts)
	}
	return caps
}

// Resource is a read-only MCP resource. URI is also the registration key.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Handler     ResourceHandler
}

// Tool pairs a lazily built MCP tool definition with its handler. Builder
// runs on every registration so option defaults can follow the config.
type Tool struct {
	Name        string
	Description string
	Builder     func() mcp.Tool
	Handler     ToolHandler
}

type Prompt struct {
	Name        string
	Description string
	Builder     func() mcp.Prompt
	Handler     PromptHandler
}

type (
	ResourceHandler = server.ResourceHandlerFunc
	ToolHandler     = server.ToolHandlerFunc
	PromptHandler   = server.PromptHandlerFunc
)

// ServerPluginDiscoveryService reports the plugin IDs the operator has
// switched off.
type ServerPluginDiscoveryService interface {
	GetDisabledServerPlugins(ctx context.Context) ([]string, error)
}
