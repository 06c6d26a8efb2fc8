package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/storage/objectstore"
)

// ReportWorker processes one work item end to end: cached series in, report
// record out. Workers share no memory; the report store is the only
// coordination point, so every write is verified by its affected-row count.
type ReportWorker struct {
	cache     interfaces.MarketDataCache
	generator interfaces.ReportGenerator
	store     interfaces.ReportStore
	pdf       interfaces.PDFService
	objects   interfaces.ObjectStore
	logger    arbor.ILogger
	loc       *time.Location
	ttl       time.Duration
	inlinePDF bool
}

// NewReportWorker wires a worker from its collaborators.
func NewReportWorker(
	cache interfaces.MarketDataCache,
	generator interfaces.ReportGenerator,
	store interfaces.ReportStore,
	pdf interfaces.PDFService,
	objects interfaces.ObjectStore,
	logger arbor.ILogger,
	loc *time.Location,
	ttl time.Duration,
	inlinePDF bool,
) *ReportWorker {
	return &ReportWorker{
		cache:     cache,
		generator: generator,
		store:     store,
		pdf:       pdf,
		objects:   objects,
		logger:    logger,
		loc:       loc,
		ttl:       ttl,
		inlinePDF: inlinePDF,
	}
}

// Process handles one work item. Item-level failures (missing cache data,
// permanent generation errors) are recorded as failed rows and surfaced as
// ItemError so the batch continues. Transient errors are returned unrecorded
// for the orchestration layer to retry. A persisted write that affects zero
// rows is an IntegrityError and fails the invoking run.
func (w *ReportWorker) Process(ctx context.Context, item models.WorkItem) error {
	if err := item.Validate(); err != nil {
		return NewConfigError("work_item", err.Error())
	}

	reportDate := common.ReportDateIn(time.Now().UTC(), w.loc)

	series, err := w.cache.GetSeries(ctx, item.Symbol, reportDate)
	if err != nil {
		itemErr := &ItemError{Symbol: item.Symbol, Err: fmt.Errorf("no market data fetched for %s: %w", reportDate, err)}
		if recErr := w.recordFailure(ctx, item.Symbol, reportDate, itemErr.Error()); recErr != nil {
			return recErr
		}
		return itemErr
	}

	report, err := w.generator.Generate(ctx, series)
	if err != nil {
		if IsTransient(err) {
			return Transient(err)
		}
		itemErr := &ItemError{Symbol: item.Symbol, Err: fmt.Errorf("report generation failed: %w", err)}
		if recErr := w.recordFailure(ctx, item.Symbol, reportDate, itemErr.Error()); recErr != nil {
			return recErr
		}
		return itemErr
	}

	now := time.Now().UTC()
	rec := &models.ReportRecord{
		Symbol:           item.Symbol,
		ReportDate:       reportDate,
		Status:           models.ReportStatusCompleted,
		ReportText:       report.Markdown,
		ReportStructured: report.Structured,
		ChartBlob:        report.ChartPNG,
		GenerationTimeMs: report.GenerationTime.Milliseconds(),
		ComputedAt:       now,
		ExpiresAt:        now.Add(w.ttl),
	}

	// The scheduled path renders the PDF inline; ad-hoc runs leave it to the
	// PDF workflow.
	if w.inlinePDF && item.Source == models.SourceScheduled {
		if err := w.attachPDF(ctx, rec, now); err != nil {
			w.logger.Warn().
				Str("symbol", item.Symbol).
				Err(err).
				Msg("Inline PDF render failed, leaving record for the PDF workflow")
		}
	}

	rows, err := w.store.UpsertReport(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to persist report for %s: %w", item.Symbol, err)
	}
	if rows != 1 {
		return &IntegrityError{
			Op:     "UpsertReport",
			Detail: fmt.Sprintf("expected 1 row affected for %s/%s, got %d", item.Symbol, reportDate, rows),
		}
	}

	w.logger.Info().
		Str("symbol", item.Symbol).
		Str("report_date", reportDate).
		Str("execution_id", item.ExecutionID).
		Int64("generation_ms", rec.GenerationTimeMs).
		Msg("Report persisted")

	return nil
}

// attachPDF renders, validates, and uploads the PDF, setting the pdf fields
// on the record so the content upsert carries them in one write.
func (w *ReportWorker) attachPDF(ctx context.Context, rec *models.ReportRecord, now time.Time) error {
	title := fmt.Sprintf("%s %s", rec.Symbol, rec.ReportDate)
	pdfBytes, err := w.pdf.RenderReport(rec.ReportText, rec.ChartBlob, title)
	if err != nil {
		return fmt.Errorf("pdf render failed: %w", err)
	}

	key := objectstore.PDFObjectKey(rec.Symbol, rec.ReportDate, now)
	if _, err := w.objects.Put(ctx, key, pdfBytes); err != nil {
		return fmt.Errorf("pdf upload failed: %w", err)
	}

	rec.PDFKey = key
	generatedAt := now
	rec.PDFGeneratedAt = &generatedAt
	return nil
}

// recordFailure upserts a failed row so the outcome is observable. Failure to
// record is itself surfaced: a silent gap would look like a missing run.
func (w *ReportWorker) recordFailure(ctx context.Context, symbol, reportDate, message string) error {
	now := time.Now().UTC()
	rec := &models.ReportRecord{
		Symbol:       symbol,
		ReportDate:   reportDate,
		Status:       models.ReportStatusFailed,
		ErrorMessage: message,
		ComputedAt:   now,
		ExpiresAt:    now.Add(w.ttl),
	}

	rows, err := w.store.UpsertReport(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to record failure for %s: %w", symbol, err)
	}
	if rows != 1 {
		return &IntegrityError{
			Op:     "UpsertReport",
			Detail: fmt.Sprintf("expected 1 row affected recording failure for %s/%s, got %d", symbol, reportDate, rows),
		}
	}

	return nil
}
