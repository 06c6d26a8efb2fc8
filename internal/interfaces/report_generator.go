package interfaces

import (
	"context"
	"time"
)

// GeneratedReport is the output of the report-generation capability.
type GeneratedReport struct {
	// Markdown is the natural-language report text.
	Markdown string

	// Structured is an opaque JSON payload, a superset of Markdown (metrics,
	// provider metadata) persisted alongside the text.
	Structured string

	// ChartPNG is the rendered price chart image.
	ChartPNG []byte

	// GenerationTime is how long generation took end to end.
	GenerationTime time.Duration
}

// ReportGenerator produces a report for one symbol from its cached series.
// The pipeline treats it as an opaque capability: text and chart in, error
// out.
type ReportGenerator interface {
	Generate(ctx context.Context, series *OHLCVSeries) (*GeneratedReport, error)
}
