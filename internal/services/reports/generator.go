package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
)

const analystSystemPrompt = `You are a financial analyst writing a concise daily report for a single stock.
Write in clear Markdown with short sections: an overview paragraph, recent price action,
volume observations, and a closing remark. Base every statement strictly on the figures
provided. Do not invent news, events, or price targets. Do not include a title heading;
one will be added for you.`

// recentBarsInPrompt limits how much raw history is inlined into the LLM prompt.
const recentBarsInPrompt = 10

// Generator produces natural-language reports with an attached price chart.
type Generator struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

var _ interfaces.ReportGenerator = (*Generator)(nil)

// NewGenerator creates a report generator backed by the given LLM service.
func NewGenerator(llm interfaces.LLMService, logger arbor.ILogger) *Generator {
	return &Generator{
		llm:    llm,
		logger: logger,
	}
}

// Generate produces the full report for one symbol: derived metrics, an LLM
// narrative, a rendered price chart, and the structured payload.
func (g *Generator) Generate(ctx context.Context, series *interfaces.OHLCVSeries) (*interfaces.GeneratedReport, error) {
	start := time.Now()

	if series == nil || len(series.Bars) == 0 {
		return nil, fmt.Errorf("no price history available for report generation")
	}

	stats := computeStats(series)

	narrative, err := g.generateNarrative(ctx, series, stats)
	if err != nil {
		return nil, fmt.Errorf("narrative generation failed for %s: %w", series.Symbol, err)
	}

	chartPNG, err := renderPriceChart(series)
	if err != nil {
		return nil, fmt.Errorf("chart rendering failed for %s: %w", series.Symbol, err)
	}

	markdown := g.assembleMarkdown(series, stats, narrative)

	structured, err := g.buildStructured(series, stats, markdown)
	if err != nil {
		return nil, fmt.Errorf("structured payload build failed for %s: %w", series.Symbol, err)
	}

	elapsed := time.Since(start)
	g.logger.Debug().
		Str("symbol", series.Symbol).
		Int("bars", len(series.Bars)).
		Dur("elapsed", elapsed).
		Msg("Report generated")

	return &interfaces.GeneratedReport{
		Markdown:       markdown,
		Structured:     structured,
		ChartPNG:       chartPNG,
		GenerationTime: elapsed,
	}, nil
}

func (g *Generator) generateNarrative(ctx context.Context, series *interfaces.OHLCVSeries, stats SeriesStats) (string, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: analystSystemPrompt},
		{Role: "user", Content: buildPrompt(series, stats)},
	}

	narrative, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm chat failed: %w", err)
	}

	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return "", fmt.Errorf("llm returned empty narrative")
	}

	return narrative, nil
}

// buildPrompt formats the derived metrics and recent bars into the user turn.
func buildPrompt(series *interfaces.OHLCVSeries, stats SeriesStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write the daily report for %s covering %s to %s.\n\n",
		series.Symbol,
		stats.FirstDate.Format("2006-01-02"),
		stats.LastDate.Format("2006-01-02"))

	fmt.Fprintf(&b, "Derived metrics:\n")
	fmt.Fprintf(&b, "- Latest close: %.4f\n", stats.LatestClose)
	fmt.Fprintf(&b, "- Previous close: %.4f\n", stats.PreviousClose)
	fmt.Fprintf(&b, "- Day change: %+.4f (%+.2f%%)\n", stats.DayChange, stats.DayChangePct)
	fmt.Fprintf(&b, "- Period high: %.4f, period low: %.4f\n", stats.PeriodHigh, stats.PeriodLow)
	fmt.Fprintf(&b, "- Period return: %+.2f%%\n", stats.PeriodReturn)
	fmt.Fprintf(&b, "- Latest volume: %d (%+.1f%% vs %d-day average of %d)\n\n",
		stats.LatestVolume, stats.VolumeVsAvgPct, stats.BarCount, stats.AverageVolume)

	fmt.Fprintf(&b, "Most recent daily bars (date, open, high, low, close, volume):\n")
	startIdx := len(series.Bars) - recentBarsInPrompt
	if startIdx < 0 {
		startIdx = 0
	}
	for _, bar := range series.Bars[startIdx:] {
		fmt.Fprintf(&b, "%s  %.4f  %.4f  %.4f  %.4f  %d\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	return b.String()
}

// assembleMarkdown wraps the LLM narrative with a deterministic header and
// metrics section so the report remains useful even if the narrative is thin.
func (g *Generator) assembleMarkdown(series *interfaces.OHLCVSeries, stats SeriesStats, narrative string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Report: %s\n\n", series.Symbol)
	fmt.Fprintf(&b, "**Report date:** %s\n\n", stats.LastDate.Format("2006-01-02"))

	fmt.Fprintf(&b, "## Key Metrics\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n")
	fmt.Fprintf(&b, "|--------|-------|\n")
	fmt.Fprintf(&b, "| Close | %.4f |\n", stats.LatestClose)
	fmt.Fprintf(&b, "| Day change | %+.4f (%+.2f%%) |\n", stats.DayChange, stats.DayChangePct)
	fmt.Fprintf(&b, "| Period high | %.4f |\n", stats.PeriodHigh)
	fmt.Fprintf(&b, "| Period low | %.4f |\n", stats.PeriodLow)
	fmt.Fprintf(&b, "| Period return | %+.2f%% |\n", stats.PeriodReturn)
	fmt.Fprintf(&b, "| Volume | %d |\n\n", stats.LatestVolume)

	fmt.Fprintf(&b, "## Analysis\n\n")
	b.WriteString(narrative)
	b.WriteString("\n")

	return b.String()
}

// structuredPayload is the JSON persisted alongside the report text.
type structuredPayload struct {
	Symbol      string      `json:"symbol"`
	ReportDate  string      `json:"report_date"`
	GeneratedAt time.Time   `json:"generated_at"`
	Stats       SeriesStats `json:"stats"`
	Markdown    string      `json:"markdown"`
}

func (g *Generator) buildStructured(series *interfaces.OHLCVSeries, stats SeriesStats, markdown string) (string, error) {
	payload := structuredPayload{
		Symbol:      series.Symbol,
		ReportDate:  stats.LastDate.Format("2006-01-02"),
		GeneratedAt: time.Now().UTC(),
		Stats:       stats,
		Markdown:    markdown,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal structured payload: %w", err)
	}

	return string(data), nil
}
