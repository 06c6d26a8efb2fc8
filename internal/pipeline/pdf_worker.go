package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/storage/objectstore"
)

// PDFWorker renders and delivers the PDF artifact for one completed report.
// Delivery is recorded by a conditional update: a row that already has a PDF
// key affects zero rows, which is how a duplicate delivery is detected.
type PDFWorker struct {
	store   interfaces.ReportStore
	pdf     interfaces.PDFService
	objects interfaces.ObjectStore
	logger  arbor.ILogger
}

// NewPDFWorker wires a PDF worker.
func NewPDFWorker(store interfaces.ReportStore, pdf interfaces.PDFService, objects interfaces.ObjectStore, logger arbor.ILogger) *PDFWorker {
	return &PDFWorker{
		store:   store,
		pdf:     pdf,
		objects: objects,
		logger:  logger,
	}
}

// Process renders, uploads, and records the PDF for one report reference.
func (w *PDFWorker) Process(ctx context.Context, ref models.ReportRef) error {
	rec, err := w.store.GetReport(ctx, ref.ID)
	if err != nil {
		return &ItemError{Symbol: ref.Symbol, Err: fmt.Errorf("failed to load report %d: %w", ref.ID, err)}
	}

	if rec.PDFKey != "" {
		// Another worker got here first. Nothing to do.
		w.logger.Debug().
			Str("symbol", rec.Symbol).
			Str("pdf_key", rec.PDFKey).
			Msg("PDF already delivered, skipping")
		return nil
	}

	title := fmt.Sprintf("%s %s", rec.Symbol, rec.ReportDate)
	pdfBytes, err := w.pdf.RenderReport(rec.ReportText, rec.ChartBlob, title)
	if err != nil {
		return &ItemError{Symbol: ref.Symbol, Err: fmt.Errorf("pdf render failed: %w", err)}
	}

	now := time.Now().UTC()
	key := objectstore.PDFObjectKey(rec.Symbol, rec.ReportDate, now)

	created, err := w.objects.Put(ctx, key, pdfBytes)
	if err != nil {
		return &ItemError{Symbol: ref.Symbol, Err: fmt.Errorf("pdf upload failed: %w", err)}
	}

	rows, err := w.store.UpdatePDFMetadata(ctx, rec.ID, key, now)
	if err != nil {
		return fmt.Errorf("failed to record pdf delivery for %s: %w", rec.Symbol, err)
	}
	if rows != 1 {
		return &IntegrityError{
			Op:     "UpdatePDFMetadata",
			Detail: fmt.Sprintf("expected 1 row affected for report %d (%s/%s), got %d", rec.ID, rec.Symbol, rec.ReportDate, rows),
		}
	}

	w.logger.Info().
		Str("symbol", rec.Symbol).
		Str("report_date", rec.ReportDate).
		Str("pdf_key", key).
		Bool("uploaded", created).
		Int("pdf_size", len(pdfBytes)).
		Msg("PDF delivered")

	return nil
}
