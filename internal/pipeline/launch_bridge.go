package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

// runLauncher admits a precompute run. Satisfied by Controller.
type runLauncher interface {
	Start(ctx context.Context, symbols []string, source models.WorkSource) (string, error)
}

// LaunchBridge connects the fetch stage to the precompute stage. It
// subscribes to the market-data-ready event and launches a run over the
// symbols that actually fetched, so a ticker whose fetch failed never spawns
// a doomed worker. Only scheduled refreshes launch here; the -once path
// drives the controller directly and awaits the result.
type LaunchBridge struct {
	events     interfaces.EventService
	controller runLauncher
	logger     arbor.ILogger
}

// NewLaunchBridge wires the bridge.
func NewLaunchBridge(events interfaces.EventService, controller runLauncher, logger arbor.ILogger) *LaunchBridge {
	return &LaunchBridge{
		events:     events,
		controller: controller,
		logger:     logger,
	}
}

// Register subscribes the bridge to the market-data-ready event.
func (b *LaunchBridge) Register() error {
	return b.events.Subscribe(interfaces.EventMarketDataReady, b.handleReady)
}

func (b *LaunchBridge) handleReady(ctx context.Context, event interfaces.Event) error {
	payload, ok := event.Payload.(models.MarketDataReady)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
	}

	if payload.Source != models.SourceScheduled {
		b.logger.Debug().
			Str("source", string(payload.Source)).
			Msg("Ignoring non-scheduled market data refresh")
		return nil
	}

	executionID, err := b.controller.Start(ctx, payload.Symbols, models.SourceScheduled)
	if err != nil {
		return fmt.Errorf("failed to launch run from market data event: %w", err)
	}

	b.logger.Info().
		Str("execution_id", executionID).
		Int("symbols", len(payload.Symbols)).
		Msg("Launched precompute run from market data event")

	return nil
}
