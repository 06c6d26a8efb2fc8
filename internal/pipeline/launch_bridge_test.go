package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

type fakeLauncher struct {
	mu      sync.Mutex
	starts  int
	symbols []string
	source  models.WorkSource
}

func (l *fakeLauncher) Start(ctx context.Context, symbols []string, source models.WorkSource) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.starts++
	l.symbols = symbols
	l.source = source
	return "exec_test", nil
}

func TestLaunchBridgeStartsRunOverFetchedSymbols(t *testing.T) {
	events := newFakeEvents()
	launcher := &fakeLauncher{}
	bridge := NewLaunchBridge(events, launcher, testLogger())
	require.NoError(t, bridge.Register())

	err := events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventMarketDataReady,
		Payload: models.MarketDataReady{
			Time:    time.Now().UTC(),
			Source:  models.SourceScheduled,
			Symbols: []string{"ASX:GNP", "NASDAQ:AAPL"},
			Failed:  []string{"ASX:BAD"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, 1, launcher.starts)
	require.Equal(t, models.SourceScheduled, launcher.source)
	// Only fetched symbols fan out; the failed ticker never reaches a worker
	require.Equal(t, []string{"ASX:GNP", "NASDAQ:AAPL"}, launcher.symbols)
}

func TestLaunchBridgeIgnoresManualRefresh(t *testing.T) {
	events := newFakeEvents()
	launcher := &fakeLauncher{}
	bridge := NewLaunchBridge(events, launcher, testLogger())
	require.NoError(t, bridge.Register())

	err := events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventMarketDataReady,
		Payload: models.MarketDataReady{
			Time:    time.Now().UTC(),
			Source:  models.SourceManual,
			Symbols: []string{"ASX:GNP"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 0, launcher.starts)
}

func TestLaunchBridgeRejectsUnexpectedPayload(t *testing.T) {
	events := newFakeEvents()
	bridge := NewLaunchBridge(events, &fakeLauncher{}, testLogger())
	require.NoError(t, bridge.Register())

	err := events.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventMarketDataReady,
		Payload: "not-a-struct",
	})
	require.Error(t, err)
}
