// Package config loads service configuration from file, environment and
// defaults using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// ResourcesConfig locates the prebuilt resource database.
type ResourcesConfig struct {
	DatabasePath    string `mapstructure:"database_path"`
	IncludeOrphanet bool   `mapstructure:"include_orphanet"`
}

// AnalysisConfig tunes the evaluator.
type AnalysisConfig struct {
	Workers     int `mapstructure:"workers"`
	GraphCache  int `mapstructure:"graph_cache"`
	DefaultTopK int `mapstructure:"default_top_k"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads and validates configuration.
type Manager struct {
	config *Config
}

// NewManager creates a configuration manager and loads configuration from
// lirical.yaml, LIRICAL_-prefixed environment variables, and defaults.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("lirical")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/lirical/")

	viper.SetEnvPrefix("LIRICAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 25.0)
	viper.SetDefault("server.rate_burst", 50)

	viper.SetDefault("resources.database_path", "data/lirical.db")
	viper.SetDefault("resources.include_orphanet", false)

	viper.SetDefault("analysis.workers", 4)
	viper.SetDefault("analysis.graph_cache", 8192)
	viper.SetDefault("analysis.default_top_k", 20)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *Config {
	return m.config
}

// GetServerConfig returns the server configuration.
func (m *Manager) GetServerConfig() *ServerConfig {
	return &m.config.Server
}

// Validate checks the loaded configuration for fatal mistakes.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Resources.DatabasePath == "" {
		return fmt.Errorf("resource database path is required")
	}
	if config.Analysis.Workers < 1 {
		return fmt.Errorf("analysis workers must be at least 1: %d", config.Analysis.Workers)
	}
	if config.Analysis.GraphCache < 1 {
		return fmt.Errorf("graph cache size must be at least 1: %d", config.Analysis.GraphCache)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	return nil
}
