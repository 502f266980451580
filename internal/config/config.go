// Package config loads the project-local .ragdex.yaml configuration file
// and merges it with built-in defaults, following the layered precedence
// the teacher's internal/config/config.go establishes (built-in defaults
// < project config file < CLI flags / per-call options).
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures which embedding provider to use.
type EmbedderConfig struct {
	Provider string `yaml:"provider" json:"provider"` // "static" or "http"
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"api_key" json:"api_key"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Config is the complete ragdex configuration, loaded from .ragdex.yaml
// and merged over Defaults().
type Config struct {
	IncludeExtensions []string       `yaml:"include_extensions" json:"include_extensions"`
	ExcludeFolders    []string       `yaml:"exclude_folders" json:"exclude_folders"`
	MaxFileSize       int64          `yaml:"max_file_size" json:"max_file_size"`
	Concurrency       int            `yaml:"concurrency" json:"concurrency"`
	EmbedBatchSize    int            `yaml:"embed_batch_size" json:"embed_batch_size"`
	Embedder          EmbedderConfig `yaml:"embedder" json:"embedder"`
	Logging           LoggingConfig  `yaml:"logging" json:"logging"`
}

// FileName is the project-local config file ragdex looks for.
const FileName = ".ragdex.yaml"

// Defaults returns the built-in configuration, matching spec's default
// constants (§6) where a config field overlaps one.
func Defaults() Config {
	return Config{
		IncludeExtensions: []string{
			".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".md", ".txt", ".json", ".yaml", ".yml",
		},
		ExcludeFolders: []string{
			"node_modules", ".git", "dist", "build", "vendor", ".rag-ts",
		},
		MaxFileSize:    1048576,
		Concurrency:    2,
		EmbedBatchSize: 16,
		Embedder: EmbedderConfig{
			Provider: "static",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads dir/.ragdex.yaml if present and merges non-zero fields over
// Defaults(). A missing file is not an error -- it simply yields the
// defaults, mirroring the teacher's tolerant config loading.
func Load(dir string) (Config, error) {
	cfg := Defaults()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cfg, err
	}

	return merge(cfg, override), nil
}

// merge layers override on top of base: any non-zero field in override
// replaces the corresponding base field.
func merge(base, override Config) Config {
	if len(override.IncludeExtensions) > 0 {
		base.IncludeExtensions = override.IncludeExtensions
	}
	if len(override.ExcludeFolders) > 0 {
		base.ExcludeFolders = override.ExcludeFolders
	}
	if override.MaxFileSize > 0 {
		base.MaxFileSize = override.MaxFileSize
	}
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	if override.EmbedBatchSize > 0 {
		base.EmbedBatchSize = override.EmbedBatchSize
	}
	if override.Embedder.Provider != "" {
		base.Embedder.Provider = override.Embedder.Provider
	}
	if override.Embedder.Endpoint != "" {
		base.Embedder.Endpoint = override.Embedder.Endpoint
	}
	if override.Embedder.Model != "" {
		base.Embedder.Model = override.Embedder.Model
	}
	if override.Embedder.APIKey != "" {
		base.Embedder.APIKey = override.Embedder.APIKey
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.FilePath != "" {
		base.Logging.FilePath = override.Logging.FilePath
	}
	return base
}
