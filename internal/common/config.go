package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Markets     MarketsConfig  `toml:"markets"`
	EODHD       EODHDConfig    `toml:"eodhd"`
	LLM         LLMConfig      `toml:"llm"`
	Claude      ClaudeConfig   `toml:"claude"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Storage     StorageConfig  `toml:"storage"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Logging     LoggingConfig  `toml:"logging"`
}

// MarketsConfig defines the ticker universe and the business calendar.
type MarketsConfig struct {
	Tickers         []string `toml:"tickers" validate:"required,min=1"` // Exchange-qualified tickers (e.g., "ASX:GNP")
	DefaultExchange string   `toml:"default_exchange"`                  // Exchange assumed for bare ticker codes
	Timezone        string   `toml:"timezone" validate:"required"`      // Business timezone for report dates (e.g., "Australia/Sydney")
	Schedule        string   `toml:"schedule" validate:"required"`      // Cron expression for the nightly run
}

// EODHDConfig contains EODHD API configuration
type EODHDConfig struct {
	APIKey    string `toml:"api_key" validate:"required"`
	RateLimit int    `toml:"rate_limit"` // Requests per second
	Timeout   string `toml:"timeout"`    // HTTP timeout as duration string
	HistoryDays int  `toml:"history_days"` // Days of OHLCV history to fetch per ticker
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the report-text provider
type LLMConfig struct {
	Provider LLMProvider `toml:"provider" validate:"required,oneof=claude gemini"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // Default: "claude-sonnet-4-20250514"
	MaxTokens   int     `toml:"max_tokens"`  // Default: 4096
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`   // Default: "gemini-2.5-flash"
	Timeout     string  `toml:"timeout"` // Operation timeout as duration string
	Temperature float32 `toml:"temperature"`
}

// StorageConfig groups the three stores: relational records, raw-data cache, binary objects.
type StorageConfig struct {
	SQLitePath string       `toml:"sqlite_path" validate:"required"` // Report record database file
	Badger     BadgerConfig `toml:"badger"`
	ObjectsDir string       `toml:"objects_dir" validate:"required"` // Filesystem object store root
}

// BadgerConfig represents BadgerDB-specific configuration for the market-data cache
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete cache on startup for clean test runs
}

// PipelineConfig bounds the orchestration run.
type PipelineConfig struct {
	Concurrency      int    `toml:"concurrency"`        // Max concurrent report workers (cap; effective N = min(cap, tickers))
	WorkerTimeout    string `toml:"worker_timeout"`     // Per-item timeout (generation + render + persist)
	RunTimeout       string `toml:"run_timeout"`        // Overall orchestration timeout
	RetryMaxAttempts int    `toml:"retry_max_attempts"` // Attempts per item for transient failures
	RetryBaseDelay   string `toml:"retry_base_delay"`   // Base delay for exponential backoff
	ReportTTLDays    int    `toml:"report_ttl_days"`    // expires_at = computed_at + TTL
	InlinePDF        bool   `toml:"inline_pdf"`         // Render PDFs inline on the scheduled path
}

// LoggingConfig controls arbor output
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should be exposed in drreport.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Markets: MarketsConfig{
			DefaultExchange: "ASX",
			Timezone:        "Australia/Sydney",
			Schedule:        "30 18 * * 1-5", // 18:30 business time, weekdays
		},
		EODHD: EODHDConfig{
			RateLimit:   10,
			Timeout:     "30s",
			HistoryDays: 90,
		},
		LLM: LLMConfig{
			Provider: LLMProviderClaude,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Storage: StorageConfig{
			SQLitePath: "./data/reports.db",
			Badger: BadgerConfig{
				Path: "./data/cache",
			},
			ObjectsDir: "./data/objects",
		},
		Pipeline: PipelineConfig{
			Concurrency:      4,
			WorkerTimeout:    "3m",
			RunTimeout:       "45m",
			RetryMaxAttempts: 3,
			RetryBaseDelay:   "2s",
			ReportTTLDays:    30,
			InlinePDF:        true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each file in order
// (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DRREPORT_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.EODHD.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if provider := os.Getenv("DRREPORT_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(strings.ToLower(provider))
	}

	if tickers := os.Getenv("DRREPORT_TICKERS"); tickers != "" {
		parts := []string{}
		for _, t := range strings.Split(tickers, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			config.Markets.Tickers = parts
		}
	}
	if tz := os.Getenv("DRREPORT_TIMEZONE"); tz != "" {
		config.Markets.Timezone = tz
	}
	if schedule := os.Getenv("DRREPORT_SCHEDULE"); schedule != "" {
		config.Markets.Schedule = schedule
	}

	if path := os.Getenv("DRREPORT_SQLITE_PATH"); path != "" {
		config.Storage.SQLitePath = path
	}
	if path := os.Getenv("DRREPORT_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if dir := os.Getenv("DRREPORT_OBJECTS_DIR"); dir != "" {
		config.Storage.ObjectsDir = dir
	}

	if concurrency := os.Getenv("DRREPORT_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Pipeline.Concurrency = c
		}
	}

	if level := os.Getenv("DRREPORT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// Validate verifies the configuration is complete before any component starts.
// Every required credential, store path and calendar setting is checked here,
// at process start, never on first use.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	// The active LLM provider must have a credential.
	switch c.LLM.Provider {
	case LLMProviderClaude:
		if c.Claude.APIKey == "" {
			return fmt.Errorf("configuration invalid: claude.api_key is required when llm.provider is %q (set via ANTHROPIC_API_KEY or config)", c.LLM.Provider)
		}
	case LLMProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("configuration invalid: gemini.api_key is required when llm.provider is %q (set via GEMINI_API_KEY or config)", c.LLM.Provider)
		}
	}

	// The business timezone must resolve to a real location.
	if _, err := time.LoadLocation(c.Markets.Timezone); err != nil {
		return fmt.Errorf("configuration invalid: markets.timezone %q: %w", c.Markets.Timezone, err)
	}

	for _, field := range []struct{ name, value string }{
		{"eodhd.timeout", c.EODHD.Timeout},
		{"claude.timeout", c.Claude.Timeout},
		{"gemini.timeout", c.Gemini.Timeout},
		{"pipeline.worker_timeout", c.Pipeline.WorkerTimeout},
		{"pipeline.run_timeout", c.Pipeline.RunTimeout},
		{"pipeline.retry_base_delay", c.Pipeline.RetryBaseDelay},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("configuration invalid: %s %q: %w", field.name, field.value, err)
		}
	}

	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// WorkerTimeoutDuration returns the parsed per-item timeout.
func (c *Config) WorkerTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.WorkerTimeout)
	if err != nil {
		return 3 * time.Minute
	}
	return d
}

// RunTimeoutDuration returns the parsed overall run timeout.
func (c *Config) RunTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.RunTimeout)
	if err != nil {
		return 45 * time.Minute
	}
	return d
}

// RetryBaseDelayDuration returns the parsed backoff base delay.
func (c *Config) RetryBaseDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.RetryBaseDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}
