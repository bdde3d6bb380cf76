package models

// WorkflowTrigger binds a workflow to one event type. Conditions is a coarse
// pre-filter: every key must be present at the top level of the payload with
// an equal value.
type WorkflowTrigger struct {
	ID         string            `json:"id"`
	Event      WorkflowEventType `json:"event"                validate:"required"`
	Conditions map[string]any    `json:"conditions,omitempty"`
	IsActive   bool              `json:"is_active"`
}
