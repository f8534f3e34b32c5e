package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	plugins "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/application"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
)

// NewSSEHandler serves the SSE transport behind the CORS middleware.
func NewSSEHandler(cfg config.TransportConfig, mcpServer *server.MCPServer) http.Handler {
	baseURL := "http://" + listenAddress(cfg)
	return CORSMiddleware(cfg.CORS)(server.NewSSEServer(mcpServer, server.WithBaseURL(baseURL)))
}

func listenAddress(cfg config.TransportConfig) string {
	return net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
}

// stopFunc releases a started transport.
type stopFunc func(ctx context.Context) error

type serverHooksParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.ServerConfig
	MCPServer  *server.MCPServer
	Adapter    *MCPAdapter
	Registry   *plugins.DynamicServerPluginRegistry
	Logger     *slog.Logger
}

// registerServerHooks activates plugins, registers their capabilities and
// then starts the configured transport. Later registry changes re-run the
// registration so the tool list follows plugins.disabled.
func registerServerHooks(p serverHooksParams) {
	var stop stopFunc

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Registry.SyncServerPlugins(ctx); err != nil {
				p.Logger.Error("Initial plugin sync failed", "error", err)
			}
			if err := p.Adapter.RegisterAllServerPlugins(ctx); err != nil {
				return fmt.Errorf("failed to register server plugins: %w", err)
			}
			p.Registry.OnChange(func(ctx context.Context) {
				if err := p.Adapter.RegisterAllServerPlugins(ctx); err != nil {
					p.Logger.Error("Failed to refresh server plugins", "error", err)
				}
			})

			var err error
			switch p.Config.Transport.Type {
			case "sse":
				stop, err = startSSE(p)
			case "stdio":
				stop, err = startStdio(p)
			default:
				err = fmt.Errorf("unknown transport type: %s", p.Config.Transport.Type)
			}
			return err
		},
		OnStop: func(ctx context.Context) error {
			if stop == nil {
				return nil
			}
			return stop(ctx)
		},
	})
}

func startSSE(p serverHooksParams) (stopFunc, error) {
	addr := listenAddress(p.Config.Transport)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           NewSSEHandler(p.Config.Transport, p.MCPServer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	p.Logger.Info("MCP server listening", "transport", "sse", "address", listener.Addr().String(), "cors", p.Config.Transport.CORS.Enabled)

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.Logger.Error("SSE server failed", "error", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, p.Config.Timeout)
		defer cancel()
		p.Logger.Info("Draining SSE connections")
		return httpServer.Shutdown(ctx)
	}, nil
}

func startStdio(p serverHooksParams) (stopFunc, error) {
	p.Logger.Info("MCP server listening", "transport", "stdio")

	go func() {
		if err := server.ServeStdio(p.MCPServer); err != nil {
			p.Logger.Error("Stdio server failed", "error", err)
		}
		// stdin closed: the client is gone.
		_ = p.Shutdowner.Shutdown()
	}()

	return func(context.Context) error {
		p.Logger.Info("Stdio transport closed")
		return nil
	}, nil
}
