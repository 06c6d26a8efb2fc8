package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

func newBridgeFixture(t *testing.T) (*Bridge, *fakeEvents, *fakeReportStore) {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	store := newFakeReportStore()
	worker := NewPDFWorker(store, &fakePDF{}, newFakeObjects(), testLogger())
	workflow := NewPDFWorkflow(store, worker, newFakeEvents(), testLogger(), 2)
	events := newFakeEvents()
	bridge := NewBridge(events, workflow, loc, testLogger())
	require.NoError(t, bridge.Register())
	return bridge, events, store
}

func TestBridgeDerivesBusinessDateFromUTC(t *testing.T) {
	_, events, store := newBridgeFixture(t)

	// 18:30 UTC on Aug 31 is already 04:30 on Sep 1 in Sydney. The PDF
	// stage must target the Sydney calendar day, not the UTC one.
	envelope := models.CompletionEnvelope{
		Time:        time.Date(2026, 8, 31, 18, 30, 0, 0, time.UTC),
		Status:      "SUCCEEDED",
		ExecutionID: "exec_test",
	}

	err := events.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventOrchestrationSucceeded,
		Payload: envelope,
	})
	require.NoError(t, err)
	require.Equal(t, "2026-09-01", store.scannedDate)
}

func TestBridgeSameCalendarDay(t *testing.T) {
	_, events, store := newBridgeFixture(t)

	// 02:00 UTC on Aug 31 is midday Aug 31 in Sydney
	envelope := models.CompletionEnvelope{
		Time:        time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC),
		Status:      "SUCCEEDED",
		ExecutionID: "exec_test",
	}

	err := events.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventOrchestrationSucceeded,
		Payload: envelope,
	})
	require.NoError(t, err)
	require.Equal(t, "2026-08-31", store.scannedDate)
}

func TestBridgeRejectsUnexpectedPayload(t *testing.T) {
	_, events, store := newBridgeFixture(t)

	err := events.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventOrchestrationSucceeded,
		Payload: "not an envelope",
	})
	require.Error(t, err)
	require.Equal(t, 0, store.scanCalls)
}
