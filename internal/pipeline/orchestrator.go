package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

// Orchestrator fans one run out across the ticker universe. Per-item failures
// are isolated and recorded; the run itself succeeds as long as orchestration
// ran to completion, and the completion event is published regardless of
// per-item outcomes. Only integrity failures abort the run.
type Orchestrator struct {
	worker        *ReportWorker
	store         interfaces.ReportStore
	events        interfaces.EventService
	logger        arbor.ILogger
	loc           *time.Location
	policy        RetryPolicy
	concurrency   int
	workerTimeout time.Duration
	runTimeout    time.Duration
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(
	worker *ReportWorker,
	store interfaces.ReportStore,
	events interfaces.EventService,
	logger arbor.ILogger,
	loc *time.Location,
	policy RetryPolicy,
	concurrency int,
	workerTimeout time.Duration,
	runTimeout time.Duration,
) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		worker:        worker,
		store:         store,
		events:        events,
		logger:        logger,
		loc:           loc,
		policy:        policy,
		concurrency:   concurrency,
		workerTimeout: workerTimeout,
		runTimeout:    runTimeout,
	}
}

// Run executes one orchestration pass over the given symbols.
func (o *Orchestrator) Run(ctx context.Context, executionID string, symbols []string, source models.WorkSource) (models.RunSummary, error) {
	summary := models.RunSummary{
		ExecutionID: executionID,
		Expected:    len(symbols),
	}

	if len(symbols) == 0 {
		return summary, NewConfigError("tickers", "no symbols to process")
	}

	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	o.logger.Info().
		Str("execution_id", executionID).
		Int("symbols", len(symbols)).
		Str("source", string(source)).
		Msg("Orchestration run started")

	limit := o.concurrency
	if len(symbols) < limit {
		limit = len(symbols)
	}

	var mu sync.Mutex
	g, runCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	reportDate := common.ReportDateIn(time.Now().UTC(), o.loc)

	for _, symbol := range symbols {
		item := models.WorkItem{
			Symbol:      symbol,
			ExecutionID: executionID,
			Source:      source,
		}

		g.Go(func() error {
			err := withRetry(runCtx, o.policy, o.logger, "report_worker:"+item.Symbol, func(ctx context.Context) error {
				workerCtx := ctx
				if o.workerTimeout > 0 {
					var cancel context.CancelFunc
					workerCtx, cancel = context.WithTimeout(ctx, o.workerTimeout)
					defer cancel()
				}
				return o.worker.Process(workerCtx, item)
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				summary.Completed++
				return nil

			case isItemFailure(err):
				// Recorded by the worker; the batch continues.
				summary.Failed++
				summary.FailedItems = append(summary.FailedItems, item.Symbol)
				o.logger.Warn().
					Str("symbol", item.Symbol).
					Str("execution_id", executionID).
					Err(err).
					Msg("Item failed, continuing batch")
				return nil

			case IsTransient(err):
				// Retries exhausted. Record the failed row here since the
				// worker leaves transient failures unrecorded for retry.
				summary.Failed++
				summary.FailedItems = append(summary.FailedItems, item.Symbol)
				o.logger.Warn().
					Str("symbol", item.Symbol).
					Str("execution_id", executionID).
					Err(err).
					Msg("Retries exhausted, recording failure and continuing")
				if recErr := o.worker.recordFailure(ctx, item.Symbol, reportDate, err.Error()); recErr != nil {
					return recErr
				}
				return nil

			default:
				// IntegrityError and unclassified failures abort the run.
				return err
			}
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error().
			Str("execution_id", executionID).
			Err(err).
			Msg("Orchestration run aborted")
		return summary, err
	}

	o.logger.Info().
		Str("execution_id", executionID).
		Str("summary", summary.String()).
		Msg("Orchestration run completed")

	o.publishCompletion(ctx, executionID, summary)
	return summary, nil
}

// isItemFailure reports whether err is an isolated per-item failure.
func isItemFailure(err error) bool {
	var itemErr *ItemError
	return errors.As(err, &itemErr)
}

// publishCompletion emits the generic completion envelope. The envelope
// carries the UTC instant and execution metadata only; consumers derive the
// business calendar date themselves.
func (o *Orchestrator) publishCompletion(ctx context.Context, executionID string, summary models.RunSummary) {
	envelope := models.CompletionEnvelope{
		Time:        time.Now().UTC(),
		Status:      "SUCCEEDED",
		ExecutionID: executionID,
		Detail:      summary.String(),
	}

	if err := o.events.PublishSync(ctx, interfaces.Event{
		Type:    interfaces.EventOrchestrationSucceeded,
		Payload: envelope,
	}); err != nil {
		// Downstream handler failures do not retroactively fail the run.
		o.logger.Warn().
			Str("execution_id", executionID).
			Err(err).
			Msg("Completion event handler reported an error")
	}
}
