package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Markets.Tickers = []string{"ASX:GNP"}
	cfg.EODHD.APIKey = "demo"
	cfg.Claude.APIKey = "test-key"
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validTestConfig().Validate())
}

func TestValidateFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no tickers", func(c *Config) { c.Markets.Tickers = nil }},
		{"no eodhd key", func(c *Config) { c.EODHD.APIKey = "" }},
		{"no claude key for claude provider", func(c *Config) { c.Claude.APIKey = "" }},
		{"no gemini key for gemini provider", func(c *Config) {
			c.LLM.Provider = LLMProviderGemini
			c.Gemini.APIKey = ""
		}},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gpt4" }},
		{"bad timezone", func(c *Config) { c.Markets.Timezone = "Not/AZone" }},
		{"no timezone", func(c *Config) { c.Markets.Timezone = "" }},
		{"bad worker timeout", func(c *Config) { c.Pipeline.WorkerTimeout = "three minutes" }},
		{"no sqlite path", func(c *Config) { c.Storage.SQLitePath = "" }},
		{"no schedule", func(c *Config) { c.Markets.Schedule = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFilesLayering(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[markets]
tickers = ["ASX:GNP", "ASX:BHP"]
timezone = "Australia/Sydney"

[pipeline]
concurrency = 2
`), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[pipeline]
concurrency = 8
`), 0644))

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Later file wins, untouched values survive from the earlier file
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, []string{"ASX:GNP", "ASX:BHP"}, cfg.Markets.Tickers)
	assert.Equal(t, "Australia/Sydney", cfg.Markets.Timezone)

	// Defaults remain for sections no file mentions
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Claude.Model)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/drreport.toml")
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "env-eodhd")
	t.Setenv("DRREPORT_TICKERS", "ASX:GNP, NASDAQ:AAPL ,")
	t.Setenv("DRREPORT_LOG_LEVEL", "debug")
	t.Setenv("DRREPORT_CONCURRENCY", "16")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "env-eodhd", cfg.EODHD.APIKey)
	assert.Equal(t, []string{"ASX:GNP", "NASDAQ:AAPL"}, cfg.Markets.Tickers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 16, cfg.Pipeline.Concurrency)
}

func TestDurationAccessors(t *testing.T) {
	cfg := validTestConfig()
	cfg.Pipeline.WorkerTimeout = "90s"
	cfg.Pipeline.RunTimeout = "30m"
	cfg.Pipeline.RetryBaseDelay = "250ms"

	assert.Equal(t, "1m30s", cfg.WorkerTimeoutDuration().String())
	assert.Equal(t, "30m0s", cfg.RunTimeoutDuration().String())
	assert.Equal(t, "250ms", cfg.RetryBaseDelayDuration().String())
}
