package workflow

import (
	"log/slog"

	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/cache"
	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/application"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/domain"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"go.uber.org/fx"
)

func newDocumentCache(lc fx.Lifecycle, cfg config.CacheConfig, logger *slog.Logger) *cache.DocumentCache[*domain.Document] {
	documents := cache.NewDocumentCache[*domain.Document](cfg, logger)
	lc.Append(fx.StopHook(documents.Stop))
	return documents
}

var Module = fx.Module("workflow",
	fx.Provide(
		newDocumentCache,
		application.NewCachedWorkflowService,
		func(s *files.Source) DocumentSource { return s },
		fx.Annotate(
			NewWorkflowServerPlugin,
			fx.ResultTags(`group:"server_plugins"`),
		),
	),
)
