package interfaces

import (
	"context"
	"time"
)

// OHLCVBar is one day of price history for a symbol.
type OHLCVBar struct {
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// OHLCVSeries is the cached raw time series for one symbol. ReportDate is
// the business date the fetch ran for; entries are keyed by symbol and
// report date so a report can never be built from a previous day's fetch.
type OHLCVSeries struct {
	Symbol     string     `json:"symbol"` // Exchange-qualified (e.g., "ASX:GNP")
	ReportDate string     `json:"report_date"`
	Bars       []OHLCVBar `json:"bars"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// MarketDataCache stores per-symbol OHLCV series between the fetch stage and
// the report workers. Workers share no memory; the cache is the only handoff.
type MarketDataCache interface {
	// SaveSeries upserts the series under its symbol and report date.
	SaveSeries(ctx context.Context, series *OHLCVSeries) error

	// GetSeries returns the series cached for a symbol on the given report
	// date, or ErrNotCached.
	GetSeries(ctx context.Context, symbol, reportDate string) (*OHLCVSeries, error)

	// Close releases the underlying store.
	Close() error
}
