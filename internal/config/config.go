package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Database DatabaseConfig `yaml:"database"`
	Board    BoardConfig    `yaml:"board"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type BoardConfig struct {
	TickInterval       time.Duration `yaml:"tick_interval"`
	DefaultPrepMinutes int           `yaml:"default_prep_minutes"`
	SeedDemo           bool          `yaml:"seed_demo"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server:   ServerConfig{Port: 8080},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"},
		Board: BoardConfig{
			TickInterval:       time.Second,
			DefaultPrepMinutes: 20,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// KITCHENBOARD_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.WithField("path", path).Warn("Config file not found, using defaults")
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("invalid metrics port %d", c.Metrics.Port)
	}
	if c.Board.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.Board.TickInterval)
	}
	if c.Board.DefaultPrepMinutes <= 0 {
		return fmt.Errorf("default_prep_minutes must be positive, got %d", c.Board.DefaultPrepMinutes)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// DefaultPrepTime is the estimate given to orders ingested without one
func (c *Config) DefaultPrepTime() time.Duration {
	return time.Duration(c.Board.DefaultPrepMinutes) * time.Minute
}

func (c *Config) applyEnv() error {
	c.LogLevel = getEnv("KITCHENBOARD_LOG_LEVEL", c.LogLevel)
	c.Database.Driver = getEnv("KITCHENBOARD_DATABASE_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("KITCHENBOARD_DATABASE_DSN", c.Database.DSN)

	var err error
	if c.Server.Port, err = getEnvInt("KITCHENBOARD_PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Metrics.Port, err = getEnvInt("KITCHENBOARD_METRICS_PORT", c.Metrics.Port); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// SetupLogging applies the configured level to the standard logrus logger
func SetupLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
