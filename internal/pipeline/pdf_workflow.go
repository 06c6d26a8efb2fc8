package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

// PDFWorkflow runs the PDF stage for one explicit report date: scan for
// completed reports without a PDF, fan out a worker per report, aggregate.
// The scan predicate makes the whole stage naturally idempotent; a rerun over
// a fully delivered date performs zero writes and zero uploads.
type PDFWorkflow struct {
	store       interfaces.ReportStore
	worker      *PDFWorker
	events      interfaces.EventService
	logger      arbor.ILogger
	concurrency int
}

// NewPDFWorkflow wires the workflow.
func NewPDFWorkflow(store interfaces.ReportStore, worker *PDFWorker, events interfaces.EventService, logger arbor.ILogger, concurrency int) *PDFWorkflow {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PDFWorkflow{
		store:       store,
		worker:      worker,
		events:      events,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run executes the PDF stage for reportDate. The date is required input: an
// empty date is a ConfigError raised before any store or object operation.
// Defaulting to today would silently target the wrong calendar day whenever a
// run crosses midnight.
func (p *PDFWorkflow) Run(ctx context.Context, reportDate string) (models.RunSummary, error) {
	summary := models.RunSummary{ExecutionID: common.NewExecutionID()}

	if reportDate == "" {
		return summary, NewConfigError("report_date", "required, refusing to default to the current date")
	}
	if err := common.ValidateReportDate(reportDate); err != nil {
		return summary, NewConfigError("report_date", err.Error())
	}

	refs, err := p.store.GetReportsNeedingPDF(ctx, reportDate)
	if err != nil {
		return summary, err
	}

	summary.Expected = len(refs)

	if len(refs) == 0 {
		p.logger.Info().
			Str("report_date", reportDate).
			Msg("No reports need PDFs")
		return summary, nil
	}

	p.logger.Info().
		Str("report_date", reportDate).
		Int("reports", len(refs)).
		Msg("PDF workflow started")

	limit := p.concurrency
	if len(refs) < limit {
		limit = len(refs)
	}

	var mu sync.Mutex
	g, runCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, ref := range refs {
		g.Go(func() error {
			err := p.worker.Process(runCtx, ref)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				summary.Completed++
				return nil
			case isItemFailure(err):
				summary.Failed++
				summary.FailedItems = append(summary.FailedItems, ref.Symbol)
				p.logger.Warn().
					Str("symbol", ref.Symbol).
					Err(err).
					Msg("PDF delivery failed for item, continuing")
				return nil
			default:
				return err
			}
		})
	}

	if err := g.Wait(); err != nil {
		var integrity *IntegrityError
		if errors.As(err, &integrity) {
			p.logger.Error().
				Str("report_date", reportDate).
				Err(err).
				Msg("PDF workflow aborted on integrity failure")
		}
		return summary, err
	}

	p.logger.Info().
		Str("report_date", reportDate).
		Str("summary", summary.String()).
		Msg("PDF workflow completed")

	p.publishCompletion(ctx, reportDate, summary)
	return summary, nil
}

func (p *PDFWorkflow) publishCompletion(ctx context.Context, reportDate string, summary models.RunSummary) {
	if err := p.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventPDFStageCompleted,
		Payload: map[string]any{
			"report_date": reportDate,
			"summary":     summary,
		},
	}); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to publish PDF stage completion")
	}
}
