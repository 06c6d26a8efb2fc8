package reports

import (
	"time"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
)

// SeriesStats holds the metrics derived from an OHLCV series. These feed both
// the LLM prompt and the structured payload persisted with the report.
type SeriesStats struct {
	Symbol         string    `json:"symbol"`
	BarCount       int       `json:"bar_count"`
	FirstDate      time.Time `json:"first_date"`
	LastDate       time.Time `json:"last_date"`
	LatestClose    float64   `json:"latest_close"`
	PreviousClose  float64   `json:"previous_close"`
	DayChange      float64   `json:"day_change"`
	DayChangePct   float64   `json:"day_change_pct"`
	PeriodHigh     float64   `json:"period_high"`
	PeriodLow      float64   `json:"period_low"`
	PeriodOpen     float64   `json:"period_open"`
	PeriodReturn   float64   `json:"period_return_pct"`
	AverageVolume  int64     `json:"average_volume"`
	LatestVolume   int64     `json:"latest_volume"`
	VolumeVsAvgPct float64   `json:"volume_vs_avg_pct"`
}

// computeStats derives summary metrics from the series. Bars are assumed to
// be in ascending date order, which is how the fetcher stores them.
func computeStats(series *interfaces.OHLCVSeries) SeriesStats {
	bars := series.Bars
	stats := SeriesStats{
		Symbol:    series.Symbol,
		BarCount:  len(bars),
		FirstDate: bars[0].Date,
		LastDate:  bars[len(bars)-1].Date,
	}

	latest := bars[len(bars)-1]
	stats.LatestClose = latest.Close
	stats.LatestVolume = latest.Volume
	stats.PeriodOpen = bars[0].Open

	if len(bars) > 1 {
		stats.PreviousClose = bars[len(bars)-2].Close
		stats.DayChange = latest.Close - stats.PreviousClose
		if stats.PreviousClose != 0 {
			stats.DayChangePct = stats.DayChange / stats.PreviousClose * 100
		}
	}

	stats.PeriodHigh = bars[0].High
	stats.PeriodLow = bars[0].Low
	var volumeSum int64
	for _, bar := range bars {
		if bar.High > stats.PeriodHigh {
			stats.PeriodHigh = bar.High
		}
		if bar.Low < stats.PeriodLow {
			stats.PeriodLow = bar.Low
		}
		volumeSum += bar.Volume
	}

	stats.AverageVolume = volumeSum / int64(len(bars))
	if stats.AverageVolume > 0 {
		stats.VolumeVsAvgPct = float64(latest.Volume-stats.AverageVolume) / float64(stats.AverageVolume) * 100
	}
	if stats.PeriodOpen != 0 {
		stats.PeriodReturn = (latest.Close - stats.PeriodOpen) / stats.PeriodOpen * 100
	}

	return stats
}
