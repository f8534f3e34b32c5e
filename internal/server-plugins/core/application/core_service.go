package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowbridge/flowbridge-mcp/internal/server"
	serverDomain "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/core/domain"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"go.uber.org/fx"
)

// PluginLister reports the active plugins.
type PluginLister interface {
	Active() []serverDomain.ServerPlugin
}

// LogSource holds recent log lines.
type LogSource interface {
	GetLast(n int) []string
	Capacity() int
}

// CoreService describes the running server.
type CoreService struct {
	build   server.BuildInfo
	config  *config.ServerConfig
	plugins PluginLister
	logs    LogSource
	logger  *slog.Logger
}

type CoreServiceParams struct {
	fx.In

	Build   server.BuildInfo
	Config  *config.ServerConfig
	Plugins PluginLister
	Logs    LogSource
	Logger  *slog.Logger
}

func NewCoreService(params CoreServiceParams) *CoreService {
	return &CoreService{
		build:   params.Build,
		config:  params.Config,
		plugins: params.Plugins,
		logs:    params.Logs,
		logger:  params.Logger,
	}
}

func (s *CoreService) GetServerInfo(ctx context.Context) *domain.ServerInfo {
	s.logger.Debug("Getting server information")

	info := &domain.ServerInfo{
		Name:           server.ServerName,
		Version:        s.build.Version,
		BuildTime:      s.build.BuildTime,
		Transport:      s.config.Transport.Type,
		MetricsEnabled: s.config.Metrics.Enabled,
		Formats:        []string{".yxmd", ".yxmc", ".yxwz", ".xml"},
		Limits: domain.Limits{
			MaxFileSize:         s.config.Limits.MaxFileSize,
			MaxMatches:          s.config.Search.MaxMatches,
			SimilarityThreshold: s.config.Diff.SimilarityThreshold,
			Timeout:             s.config.Timeout.String(),
		},
		Plugins: []domain.PluginInfo{},
	}
	if s.config.Transport.Type == "sse" {
		info.Address = fmt.Sprintf("%s:%d", s.config.Transport.Host, s.config.Transport.Port)
	}

	for _, p := range s.plugins.Active() {
		info.Plugins = append(info.Plugins, domain.PluginInfo{
			ID:          p.ID(),
			Name:        p.Name(),
			Description: p.Description(),
			Version:     p.Version(),
			Essential:   p.Essential(),
			Provides:    serverDomain.Capabilities(p),
		})
	}
	return info
}

// GetRecentLogs returns up to n redacted log lines, oldest first. n <= 0
// returns everything buffered.
func (s *CoreService) GetRecentLogs(ctx context.Context, n int) *domain.RecentLogs {
	lines := server.SanitizeLogLines(s.logs.GetLast(n))
	if lines == nil {
		lines = []string{}
	}
	return &domain.RecentLogs{
		Count:    len(lines),
		Capacity: s.logs.Capacity(),
		Lines:    lines,
	}
}
