package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Markets.Tickers = []string{"GNP"}
	cfg.EODHD.APIKey = "test-key"
	cfg.Claude.APIKey = "test-key"
	cfg.Storage.SQLitePath = filepath.Join(dir, "reports.db")
	cfg.Storage.Badger.Path = filepath.Join(dir, "cache")
	cfg.Storage.ObjectsDir = filepath.Join(dir, "objects")
	return cfg
}

func TestNewAppliesDefaultExchange(t *testing.T) {
	original := common.DefaultExchange
	defer common.SetDefaultExchange(original)

	cfg := testConfig(t)
	cfg.Markets.DefaultExchange = "NYSE"

	application, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	// Bare ticker codes now resolve against the configured exchange
	require.Equal(t, "NYSE", common.DefaultExchange)
	require.Equal(t, "NYSE", common.ParseTicker("GNP").Exchange)
}

func TestNewWiresFullPipeline(t *testing.T) {
	original := common.DefaultExchange
	defer common.SetDefaultExchange(original)

	application, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	require.NotNil(t, application.ReportStore)
	require.NotNil(t, application.MarketCache)
	require.NotNil(t, application.Fetcher)
	require.NotNil(t, application.Controller)
	require.NotNil(t, application.PDFWorkflow)
	require.NotNil(t, application.Scheduler)
}
