package editor

import (
	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/application"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/infrastructure"
	"go.uber.org/fx"
)

var Module = fx.Module("editor",
	fx.Provide(
		infrastructure.NewYAMLTemplateProvider,
		application.NewEditorService,
		func(s *files.Source) DocumentSource { return s },
		fx.Annotate(
			NewEditorServerPlugin,
			fx.ResultTags(`group:"server_plugins"`),
		),
	),
)
