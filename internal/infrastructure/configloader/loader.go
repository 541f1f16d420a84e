package configloader

import (
	"fmt"
	"os"
	"strings"
	"time"

	"solana_tokens/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "config/config.yml"

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// JupiterConfig holds the token list API client configuration.
type JupiterConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"` // 0 leaves timeouts to the transport
	RateLimitPerSecond   float64 `yaml:"rateLimitPerSecond"`   // 0 disables pacing
	Burst                int     `yaml:"burst"`
}

// RequestTimeout returns the configured request timeout.
func (c JupiterConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

// TokenStoreConfig holds the store behaviour chosen at mount time.
type TokenStoreConfig struct {
	AutoLoad      string `yaml:"autoLoad"`      // "", strict, all, all+banned
	FailurePolicy string `yaml:"failurePolicy"` // propagate, swallow

	autoLoadMode entity.AutoLoadMode
	policy       entity.FailurePolicy
}

// AutoLoadMode returns the validated auto-load mode.
func (c TokenStoreConfig) AutoLoadMode() entity.AutoLoadMode {
	return c.autoLoadMode
}

// Policy returns the validated failure policy.
func (c TokenStoreConfig) Policy() entity.FailurePolicy {
	return c.policy
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Jupiter    JupiterConfig    `yaml:"jupiter"`
	TokenStore TokenStoreConfig `yaml:"tokenStore"`
	Swagger    SwaggerConfig    `yaml:"swagger"`
}

// Load reads the YAML configuration file from the given path, unmarshals it and applies defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	logrus.Info("Configuration loaded successfully.")
	return cfg, nil
}

// Parse unmarshals YAML configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 10
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}

	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Jupiter.BaseURL == "" {
		cfg.Jupiter.BaseURL = "https://token.jup.ag"
		logrus.Infof("Jupiter.BaseURL not set, defaulting to %s", cfg.Jupiter.BaseURL)
	}
	if cfg.Jupiter.RequestTimeoutMillis < 0 {
		return fmt.Errorf("jupiter.requestTimeoutMillis must not be negative, got %d", cfg.Jupiter.RequestTimeoutMillis)
	}
	if cfg.Jupiter.RateLimitPerSecond < 0 {
		return fmt.Errorf("jupiter.rateLimitPerSecond must not be negative, got %v", cfg.Jupiter.RateLimitPerSecond)
	}
	if cfg.Jupiter.RateLimitPerSecond > 0 && cfg.Jupiter.Burst <= 0 {
		cfg.Jupiter.Burst = 1
		logrus.Infof("Jupiter.Burst not set, defaulting to %d", cfg.Jupiter.Burst)
	}

	mode, err := entity.ParseAutoLoadMode(cfg.TokenStore.AutoLoad)
	if err != nil {
		return fmt.Errorf("invalid tokenStore.autoLoad: %w", err)
	}
	cfg.TokenStore.autoLoadMode = mode

	policy, err := entity.ParseFailurePolicy(cfg.TokenStore.FailurePolicy)
	if err != nil {
		return fmt.Errorf("invalid tokenStore.failurePolicy: %w", err)
	}
	if cfg.TokenStore.FailurePolicy == "" {
		logrus.Infof("TokenStore.FailurePolicy not set, defaulting to %s", policy)
	}
	cfg.TokenStore.FailurePolicy = string(policy)
	cfg.TokenStore.policy = policy

	if cfg.Swagger.Path == "" {
		cfg.Swagger.Path = "/swagger"
	}
	return nil
}
