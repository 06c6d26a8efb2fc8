package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

// Bridge connects the content stage to the PDF stage. It subscribes to the
// orchestration completion event and starts the PDF workflow with an
// explicitly derived business date.
//
// The completion envelope carries a UTC instant only. The timezone conversion
// and calendar-date derivation happen here, as the first step of handling,
// and nowhere upstream. A UTC instant late in the business day can already be
// the next UTC calendar day; deriving the date anywhere but the consumer
// would hand the PDF stage the wrong day.
type Bridge struct {
	events   interfaces.EventService
	workflow *PDFWorkflow
	loc      *time.Location
	logger   arbor.ILogger
}

// NewBridge wires the bridge.
func NewBridge(events interfaces.EventService, workflow *PDFWorkflow, loc *time.Location, logger arbor.ILogger) *Bridge {
	return &Bridge{
		events:   events,
		workflow: workflow,
		loc:      loc,
		logger:   logger,
	}
}

// Register subscribes the bridge to orchestration completion events.
func (b *Bridge) Register() error {
	return b.events.Subscribe(interfaces.EventOrchestrationSucceeded, b.handleCompletion)
}

func (b *Bridge) handleCompletion(ctx context.Context, event interfaces.Event) error {
	envelope, ok := event.Payload.(models.CompletionEnvelope)
	if !ok {
		return fmt.Errorf("unexpected completion payload type %T", event.Payload)
	}

	// UTC instant to business calendar date, before anything else.
	reportDate := common.ReportDateIn(envelope.Time, b.loc)

	b.logger.Info().
		Str("execution_id", envelope.ExecutionID).
		Str("utc_time", envelope.Time.Format(time.RFC3339)).
		Str("report_date", reportDate).
		Msg("Orchestration completed, starting PDF workflow")

	summary, err := b.workflow.Run(ctx, reportDate)
	if err != nil {
		return fmt.Errorf("pdf workflow for %s failed: %w", reportDate, err)
	}

	b.logger.Info().
		Str("report_date", reportDate).
		Str("summary", summary.String()).
		Msg("PDF workflow finished")

	return nil
}
