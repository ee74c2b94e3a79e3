// Package config holds the application configuration for the shopping
// assistant, loaded from YAML and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	pkgconfig "github.com/lewisedginton/shopping_assistant/pkg/config"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// AppConfig holds all application configuration.
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"shopping-assistant"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// HTTP server configuration
	HTTP pkgconfig.HTTPServerConfig `yaml:"http,inline"`

	// Per-call budget for memory and issue store operations
	ExternalCallTimeout time.Duration `env:"EXTERNAL_CALL_TIMEOUT" yaml:"external_call_timeout" default:"8s"`

	// FrontendBaseURL is prepended to product deep-links in replies
	FrontendBaseURL string `env:"FRONTEND_BASE_URL" yaml:"frontend_base_url" default:"http://localhost:5173"`

	Providers ProvidersConfig `yaml:"providers,inline"`
	Catalog   CatalogConfig   `yaml:"catalog,inline"`
	Memory    MemoryConfig    `yaml:"memory,inline"`

	// Issue store; when the URL is empty an in-process store is used
	Database pkgconfig.DatabaseConfig `yaml:"database,inline"`

	Logging pkgconfig.CommonConfig   `yaml:"logging,inline"`
	Metrics pkgconfig.MetricsConfig  `yaml:"metrics,inline"`
	Health  HealthConfig             `yaml:"health,inline"`
	CORS    CORSConfig               `yaml:"cors,inline"`
}

// HealthConfig holds health check server configuration.
type HealthConfig struct {
	Enabled          bool          `env:"HEALTH_ENABLED" yaml:"health_enabled" default:"true"`
	Port             int           `env:"HEALTH_PORT" yaml:"health_port" default:"8081"`
	Timeout          time.Duration `env:"HEALTH_TIMEOUT" yaml:"health_timeout" default:"5s"`
	FailureThreshold int           `env:"HEALTH_FAILURE_THRESHOLD" yaml:"health_failure_threshold" default:"3"`
}

// CORSConfig holds cross-origin configuration for the API surface.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" default:"http://localhost:5173,http://localhost:3000"`
	MaxAge         int      `env:"CORS_MAX_AGE" yaml:"cors_max_age" default:"300"`
}

// Load reads the application configuration from the given YAML file (optional)
// and the environment.
func Load(filepath string) (*AppConfig, error) {
	var cfg AppConfig
	if err := pkgconfig.GetConfig(&cfg, filepath, true); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an aggregate error if invalid.
func (c *AppConfig) Validate() error {
	var result error

	if err := c.Logging.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.HTTP.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Metrics.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.ExternalCallTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("external_call_timeout must be greater than 0"))
	}
	if c.Health.Enabled && (c.Health.Port < 1 || c.Health.Port > 65535) {
		result = multierror.Append(result, fmt.Errorf("health_port must be between 1 and 65535, got %d", c.Health.Port))
	}
	if err := c.Providers.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Catalog.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Memory.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result
}

// GetLogLevel returns the parsed logger level.
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(c.Logging.LogLevel)
}

// IsProduction returns true if running in production environment.
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// LogConfig logs the current configuration without sensitive data.
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.HTTP.Port),
		logger.StringField("provider_order", strings.Join(c.Providers.Order, ",")),
		logger.StringField("memory_backend", c.Memory.Backend),
		logger.StringField("catalog_csv", c.Catalog.CSVPath),
		logger.StringField("log_level", c.Logging.LogLevel),
		logger.BoolField("metrics_enabled", c.Metrics.ExposeMetrics),
		logger.BoolField("database_configured", c.Database.URL != ""),
	)
}
