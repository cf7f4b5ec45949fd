package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

// DatasetConfig locates the sentiment results document and its images.
type DatasetConfig struct {
	Path              string `yaml:"path"`               // .json document or .db archive
	AssetsDir         string `yaml:"assets_dir"`         // base for relative image references
	DistributionImage string `yaml:"distribution_image"` // percentage chart
}

// DatabaseConfig configures the SQLite archive written by `import`.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	ImageTimeout string `yaml:"image_timeout"`
}

// ParseImageTimeout returns the remote image fetch timeout.
func (s ServerConfig) ParseImageTimeout() time.Duration {
	d, err := time.ParseDuration(s.ImageTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// DashboardConfig configures page content.
type DashboardConfig struct {
	Title            string `yaml:"title"`
	DefaultWordcloud string `yaml:"default_wordcloud"`
	PreviewLimit     int    `yaml:"preview_limit"`
	Author           string `yaml:"author"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:              "./data/sentiment_results.json",
			AssetsDir:         ".",
			DistributionImage: "./data/grafico_porcentaje_sentimiento.png",
		},
		Database: DatabaseConfig{Path: "./sentiboard.db"},
		Server: ServerConfig{
			Port:         8080,
			ImageTimeout: "10s",
		},
		Dashboard: DashboardConfig{
			DefaultWordcloud: "positive",
			PreviewLimit:     20,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file, then applies .env and
// environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	loadDotEnv(".env")
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from file without overriding variables
// already set in the environment.
func loadDotEnv(file string) {
	if err := gotenv.Load(file); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not load env file", "file", file, "error", err)
		}
	}
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SENTIBOARD_DATASET"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("SENTIBOARD_ASSETS_DIR"); v != "" {
		cfg.Dataset.AssetsDir = v
	}
	if v := os.Getenv("SENTIBOARD_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SENTIBOARD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SENTIBOARD_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("SENTIBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}
