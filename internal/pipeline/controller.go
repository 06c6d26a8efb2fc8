package pipeline

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

// Controller is the entry point for a precompute run. It validates required
// configuration up front, then launches the orchestration in the background
// and returns the execution ID without awaiting completion.
type Controller struct {
	cfg          *common.Config
	orchestrator *Orchestrator
	store        interfaces.ReportStore
	logger       arbor.ILogger
}

// NewController wires a controller.
func NewController(cfg *common.Config, orchestrator *Orchestrator, store interfaces.ReportStore, logger arbor.ILogger) *Controller {
	return &Controller{
		cfg:          cfg,
		orchestrator: orchestrator,
		store:        store,
		logger:       logger,
	}
}

// Start validates preconditions and launches a run for the given symbols.
// A nil or empty symbol set means the configured ticker universe. Validation
// failures surface immediately as ConfigError; nothing is launched.
func (c *Controller) Start(ctx context.Context, symbols []string, source models.WorkSource) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}

	if len(symbols) == 0 {
		symbols = c.cfg.Markets.Tickers
	}

	executionID := common.NewExecutionID()

	c.logger.Info().
		Str("execution_id", executionID).
		Int("symbols", len(symbols)).
		Str("source", string(source)).
		Msg("Precompute run launched")

	// Fire and forget. The run outlives the caller's context; outcomes are
	// observable through the store and the run summary log line.
	go func() {
		runCtx := context.Background()
		if _, err := c.orchestrator.Run(runCtx, executionID, symbols, source); err != nil {
			c.logger.Error().
				Str("execution_id", executionID).
				Err(err).
				Msg("Orchestration run failed")
		}
	}()

	return executionID, nil
}

// StartAndWait runs synchronously. Used by the -once command path where the
// process exits after the run.
func (c *Controller) StartAndWait(ctx context.Context, symbols []string, source models.WorkSource) (models.RunSummary, error) {
	if err := c.validate(); err != nil {
		return models.RunSummary{}, err
	}

	if len(symbols) == 0 {
		symbols = c.cfg.Markets.Tickers
	}

	executionID := common.NewExecutionID()
	return c.orchestrator.Run(ctx, executionID, symbols, source)
}

// validate fails fast on anything the run cannot proceed without. No silent
// defaults: a missing credential here means a clean refusal, not a batch of
// confusing downstream failures.
func (c *Controller) validate() error {
	if c.cfg.EODHD.APIKey == "" {
		return NewConfigError("eodhd.api_key", "required for market data fetch")
	}

	switch c.cfg.LLM.Provider {
	case "", common.LLMProviderClaude:
		if c.cfg.Claude.APIKey == "" {
			return NewConfigError("claude.api_key", "required for provider 'claude'")
		}
	case common.LLMProviderGemini:
		if c.cfg.Gemini.APIKey == "" {
			return NewConfigError("gemini.api_key", "required for provider 'gemini'")
		}
	default:
		return NewConfigError("llm.provider", "unknown provider "+string(c.cfg.LLM.Provider))
	}

	if _, err := time.LoadLocation(c.cfg.Markets.Timezone); err != nil {
		return NewConfigError("markets.timezone", err.Error())
	}

	if c.store == nil {
		return NewConfigError("storage", "report store is not initialized")
	}

	if len(c.cfg.Markets.Tickers) == 0 {
		return NewConfigError("markets.tickers", "at least one ticker is required")
	}

	return nil
}
