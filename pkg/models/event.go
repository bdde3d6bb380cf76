package models

import "github.com/dukex/fleetflow/pkg/payload"

// Event is a domain occurrence handed to the engine by the host application.
// The engine never mutates it.
type Event struct {
	ID      string            `json:"id,omitempty"`
	Type    WorkflowEventType `json:"event_type" validate:"required"`
	Payload payload.Value     `json:"payload"`
	Scope   string            `json:"scope,omitempty"`
}

// NewEvent builds an event from plain Go payload data.
func NewEvent(eventType WorkflowEventType, data map[string]any) Event {
	return Event{
		Type:    eventType,
		Payload: payload.FromAny(data),
	}
}
