package models

import (
	"fmt"
)

// WorkSource distinguishes the invocation path so workers can apply
// stage-specific policy (the scheduled path renders PDFs inline, the manual
// path defers to the PDF workflow).
type WorkSource string

const (
	SourceScheduled WorkSource = "scheduled"
	SourceManual    WorkSource = "manual"
)

// WorkItem is the ephemeral unit of work passed from the orchestration run to
// a report worker invocation. It is never persisted.
type WorkItem struct {
	Symbol      string     `json:"symbol"` // Exchange-qualified ticker (e.g., "ASX:GNP")
	ExecutionID string     `json:"execution_id"`
	Source      WorkSource `json:"source"`
}

// Validate checks the work item carries everything a worker needs.
func (w WorkItem) Validate() error {
	if w.Symbol == "" {
		return fmt.Errorf("work item missing symbol")
	}
	if w.ExecutionID == "" {
		return fmt.Errorf("work item missing execution id")
	}
	switch w.Source {
	case SourceScheduled, SourceManual:
	default:
		return fmt.Errorf("work item has unknown source %q", w.Source)
	}
	return nil
}
