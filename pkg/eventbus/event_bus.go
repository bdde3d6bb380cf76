// Package eventbus provides event-driven communication between fleetflow processes.
package eventbus

import (
	"context"

	"github.com/dukex/fleetflow/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes events keyed by the entity they concern; the key
// is the Kafka partition key, so events of one vehicle or workflow stay ordered.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber dispatches received events to one handler per event type.
// Messages of types without a handler are acknowledged and dropped.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives the decoded event, a pointer to the struct registered
// for its type in Decode. A returned error nacks the message for redelivery.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

var _ EventBus = (*WatermillEventBus)(nil)
