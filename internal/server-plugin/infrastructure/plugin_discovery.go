package infrastructure

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/spf13/viper"
)

// configDiscoveryService implements domain.ServerPluginDiscoveryService by
// re-reading plugins.disabled, so edits to the config file take effect on the
// next sync without a restart.
type configDiscoveryService struct {
	v      *viper.Viper
	logger *slog.Logger
}

// NewPluginDiscoveryService reads from the global viper instance that
// config.LoadConfig populated.
func NewPluginDiscoveryService(logger *slog.Logger) domain.ServerPluginDiscoveryService {
	return NewPluginDiscoveryServiceFrom(viper.GetViper(), logger)
}

func NewPluginDiscoveryServiceFrom(v *viper.Viper, logger *slog.Logger) domain.ServerPluginDiscoveryService {
	return &configDiscoveryService{v: v, logger: logger}
}

// GetDisabledServerPlugins returns the plugin IDs listed in plugins.disabled.
func (s *configDiscoveryService) GetDisabledServerPlugins(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.v.ConfigFileUsed() != "" {
		if err := s.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				s.logger.Error("Failed to re-read configuration", "error", err)
				return nil, err
			}
		}
	}

	disabled := s.v.GetStringSlice("plugins.disabled")

	s.logger.Debug("Disabled server plugins read from configuration",
		"plugins", disabled,
		"count", len(disabled))

	return disabled, nil
}
