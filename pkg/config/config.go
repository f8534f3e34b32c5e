package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// FLOWBRIDGE_LOG_LEVEL.
const EnvPrefix = "FLOWBRIDGE"

var validate = validator.New()

type TransportConfig struct {
	Type string `mapstructure:"type" validate:"oneof=stdio sse"`
	Host string `mapstructure:"host" validate:"required_if=Type sse"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	// CORS applies to the SSE transport only.
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	AllowedMethods []string      `mapstructure:"allowed_methods"`
	AllowedHeaders []string      `mapstructure:"allowed_headers"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

type TemplatesConfig struct {
	// RulesFile is a YAML template rule table. Empty uses the built-in set.
	RulesFile string `mapstructure:"rules_file"`
}

type DiffConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gte=0,lte=1"`
	// MaxCells caps changed left lines times changed right lines.
	MaxCells int `mapstructure:"max_cells" validate:"gt=0"`
}

type SearchConfig struct {
	MaxMatches int `mapstructure:"max_matches" validate:"gte=0"`
}

type LimitsConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size" validate:"gt=0"`
}

type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gte=0"`
	MaxEntries int           `mapstructure:"max_entries" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required_if=Enabled true"`
}

type PluginsConfig struct {
	Disabled     []string      `mapstructure:"disabled"`
	SyncInterval time.Duration `mapstructure:"sync_interval" validate:"gte=0"`
}

type ServerConfig struct {
	Transport     TransportConfig `mapstructure:"transport"`
	LogLevel      string          `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string          `mapstructure:"log_format" validate:"oneof=json text"`
	LogBufferSize int             `mapstructure:"log_buffer_size" validate:"gte=0"`
	Timeout       time.Duration   `mapstructure:"timeout" validate:"gt=0"`
	Templates     TemplatesConfig `mapstructure:"templates"`
	Diff          DiffConfig      `mapstructure:"diff"`
	Search        SearchConfig    `mapstructure:"search"`
	Limits        LimitsConfig    `mapstructure:"limits"`
	Cache         CacheConfig     `mapstructure:"cache"`
	Metrics       MetricsConfig   `mapstructure:"metrics"`
	Plugins       PluginsConfig   `mapstructure:"plugins"`
}

func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Transport: TransportConfig{
			Type: "stdio",
			Host: "localhost",
			Port: 8080,
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization"},
				MaxAge:         12 * time.Hour,
			},
		},
		LogLevel:      "info",
		LogFormat:     "json",
		LogBufferSize: 1000,
		Timeout:       30 * time.Second,
		Diff: DiffConfig{
			SimilarityThreshold: 0.6,
			MaxCells:            1 << 25,
		},
		Search: SearchConfig{
			MaxMatches: 1000,
		},
		Limits: LimitsConfig{
			MaxFileSize: 50 << 20,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 64,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "localhost:9090",
		},
		Plugins: PluginsConfig{
			Disabled:     []string{},
			SyncInterval: 1 * time.Minute,
		},
	}
}

func LoadConfig() (*ServerConfig, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/flowbridge/")
	viper.AddConfigPath("$HOME/.flowbridge/")

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	// Server configuration defaults
	viper.SetDefault("transport.type", config.Transport.Type)
	viper.SetDefault("transport.host", config.Transport.Host)
	viper.SetDefault("transport.port", config.Transport.Port)
	viper.SetDefault("transport.cors.enabled", config.Transport.CORS.Enabled)
	viper.SetDefault("transport.cors.allowed_origins", config.Transport.CORS.AllowedOrigins)
	viper.SetDefault("transport.cors.allowed_methods", config.Transport.CORS.AllowedMethods)
	viper.SetDefault("transport.cors.allowed_headers", config.Transport.CORS.AllowedHeaders)
	viper.SetDefault("transport.cors.max_age", config.Transport.CORS.MaxAge)
	viper.SetDefault("log_level", config.LogLevel)
	viper.SetDefault("log_format", config.LogFormat)
	viper.SetDefault("log_buffer_size", config.LogBufferSize)
	viper.SetDefault("timeout", config.Timeout)

	// Workflow tooling defaults
	viper.SetDefault("templates.rules_file", config.Templates.RulesFile)
	viper.SetDefault("diff.similarity_threshold", config.Diff.SimilarityThreshold)
	viper.SetDefault("diff.max_cells", config.Diff.MaxCells)
	viper.SetDefault("search.max_matches", config.Search.MaxMatches)
	viper.SetDefault("limits.max_file_size", config.Limits.MaxFileSize)
	viper.SetDefault("cache.enabled", config.Cache.Enabled)
	viper.SetDefault("cache.ttl", config.Cache.TTL)
	viper.SetDefault("cache.max_entries", config.Cache.MaxEntries)

	// Metrics and plugin defaults
	viper.SetDefault("metrics.enabled", config.Metrics.Enabled)
	viper.SetDefault("metrics.address", config.Metrics.Address)
	viper.SetDefault("plugins.disabled", config.Plugins.Disabled)
	viper.SetDefault("plugins.sync_interval", config.Plugins.SyncInterval)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	// Decode the configuration
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks struct constraints first, then the rules tags cannot
// express.
func Validate(config *ServerConfig) error {
	if err := validate.Struct(config); err != nil {
		return formatValidationError(err)
	}

	if config.Transport.Type == "sse" && config.Metrics.Enabled &&
		config.Metrics.Address == fmt.Sprintf("%s:%d", config.Transport.Host, config.Transport.Port) {
		return fmt.Errorf("the metrics address must differ from the SSE address")
	}

	if config.Cache.Enabled && config.Cache.TTL == 0 {
		return fmt.Errorf("cache.ttl must be set when the cache is enabled")
	}

	for _, origin := range config.Transport.CORS.AllowedOrigins {
		if origin == "" {
			return fmt.Errorf("CORS allowed origins cannot contain empty values")
		}
	}

	return nil
}

// formatValidationError reports the first failed constraint with its
// configuration key.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required", "required_if":
			return fmt.Errorf("%s: field is required", field)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s], got %v", field, e.Param(), e.Value())
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
