package models

import (
	"time"
)

// CompletionEnvelope is the generic event payload emitted when an
// orchestration run reaches its terminal state. It carries execution metadata
// and a UTC timestamp only; it is NOT guaranteed to contain a
// business-meaningful report date. Consumers must convert Time to the business
// timezone and derive the calendar date themselves.
type CompletionEnvelope struct {
	Time        time.Time `json:"time"` // UTC
	Status      string    `json:"status"`
	ExecutionID string    `json:"executionId"`
	Detail      string    `json:"detail,omitempty"`
}

// MarketDataReady is published by the data fetcher after the raw-data cache
// has been refreshed for a run. Symbols lists only the tickers whose fetch
// succeeded; the precompute launch fans out over that set.
type MarketDataReady struct {
	Time    time.Time  `json:"time"` // UTC
	Source  WorkSource `json:"source"`
	Symbols []string   `json:"symbols"`
	Failed  []string   `json:"failed,omitempty"`
}
