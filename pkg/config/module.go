package config

import "go.uber.org/fx"

var Module = fx.Module("config",
	// The full ServerConfig is supplied by the application; these are the
	// smaller configs consumers ask for.
	fx.Provide(func(cfg *ServerConfig) TransportConfig { return cfg.Transport }),
	fx.Provide(func(cfg *ServerConfig) TemplatesConfig { return cfg.Templates }),
	fx.Provide(func(cfg *ServerConfig) DiffConfig { return cfg.Diff }),
	fx.Provide(func(cfg *ServerConfig) SearchConfig { return cfg.Search }),
	fx.Provide(func(cfg *ServerConfig) LimitsConfig { return cfg.Limits }),
	fx.Provide(func(cfg *ServerConfig) CacheConfig { return cfg.Cache }),
	fx.Provide(func(cfg *ServerConfig) MetricsConfig { return cfg.Metrics }),
	fx.Provide(func(cfg *ServerConfig) PluginsConfig { return cfg.Plugins }),
)
