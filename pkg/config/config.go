package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is read from the working directory when present.
const ConfigFile = "config.yaml"

// MinAdminSecretLength is the shortest admin shared secret accepted.
const MinAdminSecretLength = 32

// Config holds all configuration for food-agent.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// DataDir is the data root. When empty it is resolved from settings.json and then XDG defaults.
	DataDir string `yaml:"data_dir" env:"FOOD_AGENT_DATA" env-default:""`
	// DataDirSource records where DataDir came from: "config", "settings" or "default".
	DataDirSource string `yaml:"-"`

	// ConfigDir holds settings.json. Defaults to $XDG_CONFIG_HOME/food-agent.
	ConfigDir string `yaml:"config_dir" env:"FOOD_AGENT_CONFIG" env-default:""`

	// DayCutoffHour is the local hour before which "today" still means yesterday.
	DayCutoffHour int `yaml:"day_cutoff_hour" env:"DAY_CUTOFF_HOUR" env-default:"0"`

	MCP MCPConfig `yaml:"mcp"`

	// AdminSharedSecret enables the admin user API when set.
	AdminSharedSecret string `yaml:"-" env:"ADMIN_SHARED_SECRET"` // Secret - not in YAML

	// Warnings collects non-fatal problems found while loading, for logging once a logger exists.
	Warnings []string `yaml:"-"`
}

// MCPConfig holds MCP transport settings.
type MCPConfig struct {
	// LogRequests enables per-call logging of tool names and sanitized arguments.
	LogRequests bool `yaml:"log_requests" env:"MCP_LOG_REQUESTS" env-default:"true"`
}

// Load reads configuration from config.yaml, if present, with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", ConfigFile, err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// AdminEnabled reports whether the admin user API should be served.
func (c *Config) AdminEnabled() bool {
	return c.AdminSharedSecret != ""
}

func (c *Config) validate() error {
	if c.DayCutoffHour < 0 || c.DayCutoffHour > 23 {
		return fmt.Errorf("day_cutoff_hour must be between 0 and 23, got %d", c.DayCutoffHour)
	}
	if c.AdminSharedSecret != "" && len(c.AdminSharedSecret) < MinAdminSecretLength {
		return fmt.Errorf("ADMIN_SHARED_SECRET is too weak: must be at least %d characters", MinAdminSecretLength)
	}
	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// Actual readability is checked by tls.LoadX509KeyPair at startup
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}
