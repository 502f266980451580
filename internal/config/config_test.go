package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadMergesOverrideOverDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
concurrency: 8
embedder:
  provider: http
  endpoint: http://localhost:11434/api/embed
  model: nomic-embed-text
exclude_folders:
  - node_modules
  - .git
  - tmp
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "http", cfg.Embedder.Provider)
	assert.Equal(t, "http://localhost:11434/api/embed", cfg.Embedder.Endpoint)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
	assert.Equal(t, []string{"node_modules", ".git", "tmp"}, cfg.ExcludeFolders)
	// Untouched fields keep their defaults.
	assert.Equal(t, Defaults().EmbedBatchSize, cfg.EmbedBatchSize)
	assert.Equal(t, Defaults().MaxFileSize, cfg.MaxFileSize)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{ not valid yaml"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
