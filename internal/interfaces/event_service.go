package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventMarketDataReady is published by the data fetcher when the raw-data
	// cache has been refreshed for the configured ticker set.
	EventMarketDataReady EventType = "market_data_ready"

	// EventOrchestrationSucceeded is published when an orchestration run
	// reaches its terminal succeeded state, independent of per-item outcomes.
	EventOrchestrationSucceeded EventType = "orchestration_succeeded"

	// EventPDFStageCompleted is published when a PDF workflow run finishes.
	EventPDFStageCompleted EventType = "pdf_stage_completed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the pub/sub event bus that decouples the content
// stage from the PDF stage.
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
