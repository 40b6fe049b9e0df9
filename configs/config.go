// Package configs loads the application configuration from the process
// environment, an optional .env file and an optional YAML file. Environment
// variables always win.
package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileConfig defines the structure loaded from the YAML configuration file.
// Only connection settings can come from the file; everything else is
// environment-only.
type FileConfig struct {
	BaseURL    string `yaml:"base_url"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	IgnoreCert *bool  `yaml:"ignore_cert,omitempty"`
}

// Config holds the final application configuration. Fields are loaded from
// environment variables with the prefix "MOBI_", potentially overriding
// file settings.
type Config struct {
	// Config file path (loaded first from env).
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// Connection settings for the Mobi backend.
	BaseURL    string `envconfig:"BASE_URL"`
	Username   string `envconfig:"USERNAME"`
	Password   string `envconfig:"PASSWORD"`
	IgnoreCert bool   `envconfig:"IGNORE_CERT" default:"false"`

	// Server settings.
	ListenAddr        string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AdminListenAddr   string        `envconfig:"ADMIN_LISTEN_ADDR" default:":8081"`
	HTTPClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// Observability.
	OtelExporterOtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string `envconfig:"LOG_LEVEL" default:"info"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Validate checks that the settings required to reach the backend are set.
func (c *Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "MOBI_BASE_URL")
	}
	if c.Username == "" {
		missing = append(missing, "MOBI_USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "MOBI_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Load loads configuration from a .env file (if present), then the
// environment, then the YAML file named by MOBI_CONFIG_FILE. A file value
// only fills a field whose environment variable was not set.
func Load() (*Config, error) {
	// Best effort; running without a .env file is normal.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("mobi", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if cfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(cfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", cfg.ConfigFilePath, err)
		}
		var fileCfg FileConfig
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", cfg.ConfigFilePath, err)
		}
		applyFile(&cfg, fileCfg)
		slog.Info("Loaded configuration from file.", "path", cfg.ConfigFilePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyFile merges file values into cfg for fields whose environment
// variable is absent, keeping env-over-file precedence.
func applyFile(cfg *Config, fileCfg FileConfig) {
	if _, ok := os.LookupEnv("MOBI_BASE_URL"); !ok && fileCfg.BaseURL != "" {
		cfg.BaseURL = fileCfg.BaseURL
	}
	if _, ok := os.LookupEnv("MOBI_USERNAME"); !ok && fileCfg.Username != "" {
		cfg.Username = fileCfg.Username
	}
	if _, ok := os.LookupEnv("MOBI_PASSWORD"); !ok && fileCfg.Password != "" {
		cfg.Password = fileCfg.Password
	}
	if _, ok := os.LookupEnv("MOBI_IGNORE_CERT"); !ok && fileCfg.IgnoreCert != nil {
		cfg.IgnoreCert = *fileCfg.IgnoreCert
	}
}
