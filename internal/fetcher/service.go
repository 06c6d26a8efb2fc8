// Package fetcher refreshes the raw market-data cache for the configured
// ticker universe ahead of an orchestration run.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/eodhd"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/storage/objectstore"
)

// EODClient is the slice of the market-data client the fetcher needs.
type EODClient interface {
	GetEOD(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error)
}

// Service fetches end-of-day history per ticker, stores each series in the
// cache, snapshots the raw payload to the object store, and announces
// readiness on the event bus. Per-symbol failures are tolerated; the run only
// fails when nothing could be fetched at all.
type Service struct {
	client      EODClient
	cache       interfaces.MarketDataCache
	objects     interfaces.ObjectStore
	events      interfaces.EventService
	logger      arbor.ILogger
	loc         *time.Location
	historyDays int
}

// NewService wires a fetcher.
func NewService(
	client EODClient,
	cache interfaces.MarketDataCache,
	objects interfaces.ObjectStore,
	events interfaces.EventService,
	logger arbor.ILogger,
	loc *time.Location,
	historyDays int,
) *Service {
	if historyDays < 1 {
		historyDays = 30
	}
	return &Service{
		client:      client,
		cache:       cache,
		objects:     objects,
		events:      events,
		logger:      logger,
		loc:         loc,
		historyDays: historyDays,
	}
}

// FetchAll refreshes the cache for every ticker. Returns an error only when
// no ticker could be fetched; partial coverage is announced with the failed
// symbols listed in the event payload. The source is carried on the event so
// subscribers can tell a scheduled refresh from an ad-hoc one.
func (s *Service) FetchAll(ctx context.Context, tickerSpecs []string, source models.WorkSource) error {
	tickers := common.ParseTickers(tickerSpecs)
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers configured")
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -s.historyDays)
	snapshotDate := common.ReportDateIn(now, s.loc)

	var fetched []string
	var failed []string

	for _, ticker := range tickers {
		symbol := ticker.String()
		if err := s.fetchOne(ctx, ticker, from, now, snapshotDate); err != nil {
			s.logger.Warn().
				Str("symbol", symbol).
				Err(err).
				Msg("Fetch failed for symbol, continuing")
			failed = append(failed, symbol)
			continue
		}
		fetched = append(fetched, symbol)
	}

	if len(fetched) == 0 {
		return fmt.Errorf("market data fetch failed for all %d tickers", len(tickers))
	}

	s.logger.Info().
		Int("fetched", len(fetched)).
		Int("failed", len(failed)).
		Msg("Market data cache refreshed")

	return s.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventMarketDataReady,
		Payload: models.MarketDataReady{
			Time:    now,
			Source:  source,
			Symbols: fetched,
			Failed:  failed,
		},
	})
}

func (s *Service) fetchOne(ctx context.Context, ticker common.Ticker, from, to time.Time, snapshotDate string) error {
	resp, err := s.client.GetEOD(ctx, ticker.EODHDSymbol(),
		eodhd.WithDateRange(from, to),
		eodhd.WithPeriod("d"),
		eodhd.WithOrder("a"),
	)
	if err != nil {
		return fmt.Errorf("eodhd request failed: %w", err)
	}
	if len(resp) == 0 {
		return fmt.Errorf("no price history returned for %s", ticker.EODHDSymbol())
	}

	symbol := ticker.String()
	series := toSeries(symbol, resp)
	series.ReportDate = snapshotDate

	if err := s.cache.SaveSeries(ctx, series); err != nil {
		return fmt.Errorf("failed to cache series: %w", err)
	}

	if err := s.snapshot(ctx, symbol, snapshotDate, resp); err != nil {
		// Snapshot is an audit artifact; its loss does not invalidate the run
		s.logger.Warn().
			Str("symbol", symbol).
			Err(err).
			Msg("Failed to write raw snapshot")
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Int("bars", len(series.Bars)).
		Msg("Series cached")

	return nil
}

// snapshot writes the raw API payload to the object store for audit.
func (s *Service) snapshot(ctx context.Context, symbol, date string, resp eodhd.EODResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	key := objectstore.RawSnapshotKey(symbol, date)
	if _, err := s.objects.Put(ctx, key, data); err != nil {
		return err
	}
	return nil
}

func toSeries(symbol string, resp eodhd.EODResponse) *interfaces.OHLCVSeries {
	bars := make([]interfaces.OHLCVBar, 0, len(resp))
	for _, d := range resp {
		bars = append(bars, interfaces.OHLCVBar{
			Date:          d.Date,
			Open:          d.Open,
			High:          d.High,
			Low:           d.Low,
			Close:         d.Close,
			AdjustedClose: d.AdjustedClose,
			Volume:        d.Volume,
		})
	}
	return &interfaces.OHLCVSeries{
		Symbol:    symbol,
		Bars:      bars,
		FetchedAt: time.Now().UTC(),
	}
}
