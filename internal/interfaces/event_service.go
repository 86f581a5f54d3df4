package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventCurationCompleted EventType = "curation_completed"
	EventBackfillCompleted EventType = "embedding_backfill_completed"
	EventBackfillTriggered EventType = "embedding_backfill_triggered"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the in-process pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
