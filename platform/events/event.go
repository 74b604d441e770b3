// Package events is the in-process publish/subscribe layer. Scoring,
// decay and replay publish domain events here; the notification module
// subscribes and fans them out to dashboards. No business logic lives in
// this package.
package events

import (
	"context"
	"time"
)

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every handler subscribed to its name.
	// Delivery is asynchronous; publishers never wait on subscribers.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and blocks until every handler ran,
	// returning the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matched against
	// Event.EventName() at publish time.
	Subscribe(eventName string, handler Handler)
}

// Event is implemented by every domain event put on the bus.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the publish timestamp shared by all events. Embed it
// and NewBaseEvent() it at publish time.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events from the bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}
