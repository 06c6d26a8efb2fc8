package models

import (
	"fmt"
)

// RunSummary aggregates per-item outcomes of a fan-out run. Partial success
// is a designed outcome: the run itself succeeds as long as orchestration ran
// to completion, independent of individual item results. Operators compare
// Expected against Completed to detect partial degradation.
type RunSummary struct {
	ExecutionID string   `json:"execution_id"`
	Expected    int      `json:"expected"`
	Completed   int      `json:"completed"`
	Failed      int      `json:"failed"`
	FailedItems []string `json:"failed_items,omitempty"`
}

// String renders the operator-facing progress line.
func (s RunSummary) String() string {
	return fmt.Sprintf("%d of %d items completed, %d failed", s.Completed, s.Expected, s.Failed)
}
