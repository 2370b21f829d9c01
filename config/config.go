package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Ollama struct {
		BaseURL       string `yaml:"base_url"`
		EmbedModel    string `yaml:"embed_model"`
		GenerateModel string `yaml:"generate_model"`
		Dimensions    int    `yaml:"dimensions"`
	} `yaml:"ollama"`
	Processing struct {
		MaxChars     int `yaml:"max_chars"`
		OverlapChars int `yaml:"overlap_chars"`
		TopK         int `yaml:"top_k"`
	} `yaml:"processing"`
	Sessions struct {
		TTLMinutes           int `yaml:"ttl_minutes"`
		SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	} `yaml:"sessions"`
	Limits struct {
		MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	} `yaml:"limits"`
	Paths struct {
		TempDir string `yaml:"temp_dir"`
	} `yaml:"paths"`
}

// Load loads configuration from path or returns defaults.
// A missing file is not an error; DATABASE_URL overrides the configured DSN.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".docquery", "config.yaml")
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.ConnectionString = dsn
	}

	return cfg, nil
}

// Save saves configuration to path, creating parent directories as needed
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// TTL returns the configured session idle lifetime
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Sessions.TTLMinutes) * time.Minute
}

// SweepInterval returns the configured sweep cadence
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sessions.SweepIntervalMinutes) * time.Minute
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Addr = ":8080"
	cfg.Database.ConnectionString = ""
	cfg.Ollama.BaseURL = ""
	cfg.Ollama.EmbedModel = "nomic-embed-text"
	cfg.Ollama.GenerateModel = ""
	cfg.Ollama.Dimensions = 768
	cfg.Processing.MaxChars = 500
	cfg.Processing.OverlapChars = 50
	cfg.Processing.TopK = 3
	cfg.Sessions.TTLMinutes = 30
	cfg.Sessions.SweepIntervalMinutes = 30
	cfg.Limits.MaxUploadBytes = 1 << 20
	cfg.Paths.TempDir = filepath.Join(os.TempDir(), "docquery-uploads")

	return cfg
}
