package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/muzzy-dev/muzzy/internal/categorize"
)

// Config represents the top-level muzzy.yaml configuration.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Upload     UploadConfig      `yaml:"upload"`
	Import     ImportConfig      `yaml:"import"`
	Categories []categorize.Rule `yaml:"categories,omitempty"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// UploadConfig controls temporary upload storage.
type UploadConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	LargeAmountThreshold string `yaml:"large_amount_threshold"` // decimal string, e.g. "5000"
	AuditLogDir          string `yaml:"audit_log_dir"`
}

// Load reads a muzzy.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Upload: UploadConfig{
			Dir:      "temp_uploads",
			MaxBytes: 10 << 20,
		},
		Import: ImportConfig{
			LargeAmountThreshold: "5000",
			AuditLogDir:          "logs",
		},
	}
}
