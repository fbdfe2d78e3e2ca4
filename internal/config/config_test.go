package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[service]
endpoint = "https://images.example.com/api/generate-image"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://images.example.com/api/generate-image", cfg.Service.Endpoint)
	assert.Equal(t, 120*time.Second, cfg.Service.Timeout())
	assert.Equal(t, 512, cfg.Defaults.Width)
	assert.Equal(t, 512, cfg.Defaults.Height)
	assert.Equal(t, 20, cfg.Defaults.Steps)
	assert.Equal(t, 7.5, cfg.Defaults.GuidanceScale)
	assert.Equal(t, -1, cfg.Defaults.Seed)
	assert.Equal(t, "", cfg.Defaults.NegativePrompt)
	assert.Equal(t, 4, cfg.Batch.MaxCount)
	assert.False(t, cfg.Batch.PersistHistory)
	assert.Equal(t, 100, cfg.History.MaxEntries)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
dbPath = "/tmp/studio.db"
language = "zh"

[defaults]
width = 768
height = 768
negativePrompt = "blurry"

[batch]
maxCount = 8
persistHistory = true

[history]
maxEntries = 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/studio.db", cfg.DBPath)
	assert.Equal(t, "zh", cfg.Language)
	assert.Equal(t, 768, cfg.Defaults.Width)
	assert.Equal(t, 768, cfg.Defaults.Height)
	assert.Equal(t, 20, cfg.Defaults.Steps, "unset fields keep their default")
	assert.Equal(t, "blurry", cfg.Defaults.NegativePrompt)
	assert.Equal(t, 8, cfg.Batch.MaxCount)
	assert.True(t, cfg.Batch.PersistHistory)
	assert.Equal(t, 0, cfg.History.MaxEntries)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty endpoint", func(c *Config) { c.Service.Endpoint = "" }},
		{"non http endpoint", func(c *Config) { c.Service.Endpoint = "ftp://example.com/gen" }},
		{"zero width", func(c *Config) { c.Defaults.Width = 0 }},
		{"huge height", func(c *Config) { c.Defaults.Height = 4096 }},
		{"zero steps", func(c *Config) { c.Defaults.Steps = 0 }},
		{"negative guidance", func(c *Config) { c.Defaults.GuidanceScale = -1 }},
		{"seed below sentinel", func(c *Config) { c.Defaults.Seed = -2 }},
		{"zero batch", func(c *Config) { c.Batch.MaxCount = 0 }},
		{"negative retention", func(c *Config) { c.History.MaxEntries = -5 }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"unknown log level", func(c *Config) { c.LogConfig.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}
