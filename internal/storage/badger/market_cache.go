package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
)

// ErrNotCached is returned when no series exists for a symbol on the
// requested report date.
var ErrNotCached = errors.New("no cached series for symbol")

// cacheKey scopes entries to one symbol on one report date. A report for
// today can therefore never be served bars cached by an earlier day's fetch.
func cacheKey(symbol, reportDate string) string {
	return symbol + "|" + reportDate
}

// MarketDataCache implements the MarketDataCache interface for Badger.
// It is the only handoff between the fetch stage and the report workers;
// workers share no in-process state.
type MarketDataCache struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.MarketDataCache = (*MarketDataCache)(nil)

// NewMarketDataCache creates a new MarketDataCache instance
func NewMarketDataCache(db *BadgerDB, logger arbor.ILogger) *MarketDataCache {
	return &MarketDataCache{
		db:     db,
		logger: logger,
	}
}

// SaveSeries upserts the series under its symbol and report date.
func (c *MarketDataCache) SaveSeries(ctx context.Context, series *interfaces.OHLCVSeries) error {
	if series == nil || series.Symbol == "" {
		return fmt.Errorf("series symbol is required")
	}
	if series.ReportDate == "" {
		return fmt.Errorf("series report date is required")
	}
	if series.FetchedAt.IsZero() {
		series.FetchedAt = time.Now().UTC()
	}

	if err := c.db.Store().Upsert(cacheKey(series.Symbol, series.ReportDate), series); err != nil {
		return fmt.Errorf("failed to cache series for %s: %w", series.Symbol, err)
	}

	c.logger.Debug().
		Str("symbol", series.Symbol).
		Str("report_date", series.ReportDate).
		Int("bars", len(series.Bars)).
		Msg("Cached market data series")

	return nil
}

// GetSeries returns the series cached for a symbol on the given report date,
// or ErrNotCached.
func (c *MarketDataCache) GetSeries(ctx context.Context, symbol, reportDate string) (*interfaces.OHLCVSeries, error) {
	var series interfaces.OHLCVSeries
	if err := c.db.Store().Get(cacheKey(symbol, reportDate), &series); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s on %s", ErrNotCached, symbol, reportDate)
		}
		return nil, fmt.Errorf("failed to get cached series for %s: %w", symbol, err)
	}
	return &series, nil
}

// Close closes the underlying store.
func (c *MarketDataCache) Close() error {
	return c.db.Close()
}
