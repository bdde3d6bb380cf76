// Package events defines the messages exchanged over the fleetflow event bus.
package events

import (
	"errors"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every fleetflow message; consumers dispatch on EventTypeMetadataKey.
const Topic = "fleetflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Inbound domain events waiting to be processed by the engine.
	FleetEventReceivedEvent EventType = "fleet.event.received"

	// Execution lifecycle.
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"

	// Side effects requested by actions.
	AlertCreatedEvent            EventType = "alert.created"
	NotificationRequestedEvent   EventType = "notification.requested"
	VehicleCommandRequestedEvent EventType = "vehicle.command.requested"
)

var (
	ErrMissingEventType   = errors.New("event type is required")
	ErrMissingWorkflowID  = errors.New("workflow_id is required")
	ErrMissingExecutionID = errors.New("execution_id is required")
	ErrMissingVehicleID   = errors.New("vehicle_id is required")
	ErrMissingRecipient   = errors.New("recipient is required")
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Scope     string         `json:"scope,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, scope string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Scope:     scope,
		Metadata:  make(map[string]any),
	}
}

// FleetEventReceived wraps a domain event submitted for workflow processing.
type FleetEventReceived struct {
	BaseEvent

	Event models.Event `json:"event"`
}

func NewFleetEventReceived(event models.Event) *FleetEventReceived {
	return &FleetEventReceived{
		BaseEvent: NewBaseEvent(FleetEventReceivedEvent, event.Scope),
		Event:     event,
	}
}

func (e FleetEventReceived) GetType() EventType {
	return FleetEventReceivedEvent
}

func (e FleetEventReceived) Validate() error {
	if e.Event.Type == "" {
		return ErrMissingEventType
	}

	return nil
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	WorkflowID    string                   `json:"workflow_id"`
	ExecutionID   string                   `json:"execution_id"`
	EventID       string                   `json:"event_id,omitempty"`
	EventType     models.WorkflowEventType `json:"event_type"`
	ConditionsMet bool                     `json:"conditions_met"`
	ActionCount   int                      `json:"action_count"`
	FailedActions int                      `json:"failed_actions"`
	Duration      time.Duration            `json:"duration"`
}

func (e WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

func (e WorkflowExecutionCompleted) Validate() error {
	return validateExecutionRef(e.WorkflowID, e.ExecutionID)
}

type WorkflowExecutionFailed struct {
	BaseEvent

	WorkflowID  string                   `json:"workflow_id"`
	ExecutionID string                   `json:"execution_id"`
	EventID     string                   `json:"event_id,omitempty"`
	EventType   models.WorkflowEventType `json:"event_type"`
	ErrorKind   models.ErrorKind         `json:"error_kind,omitempty"`
	Error       string                   `json:"error"`
	Duration    time.Duration            `json:"duration"`
}

func (e WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

func (e WorkflowExecutionFailed) Validate() error {
	return validateExecutionRef(e.WorkflowID, e.ExecutionID)
}

// NewExecutionEvent returns the lifecycle event announcing a finished execution.
func NewExecutionEvent(execution *models.WorkflowExecution, scope string) Validatable {
	if execution.Status == models.ExecutionFailed {
		return &WorkflowExecutionFailed{
			BaseEvent:   NewBaseEvent(WorkflowExecutionFailedEvent, scope),
			WorkflowID:  execution.WorkflowID,
			ExecutionID: execution.ID,
			EventID:     execution.EventID,
			EventType:   execution.EventType,
			ErrorKind:   execution.ErrorKind,
			Error:       execution.Error,
			Duration:    execution.Duration,
		}
	}

	return &WorkflowExecutionCompleted{
		BaseEvent:     NewBaseEvent(WorkflowExecutionCompletedEvent, scope),
		WorkflowID:    execution.WorkflowID,
		ExecutionID:   execution.ID,
		EventID:       execution.EventID,
		EventType:     execution.EventType,
		ConditionsMet: execution.ConditionsMet,
		ActionCount:   len(execution.ActionResults),
		FailedActions: execution.FailedActions(),
		Duration:      execution.Duration,
	}
}

type AlertCreated struct {
	BaseEvent

	Alert models.Alert `json:"alert"`
}

func (e AlertCreated) GetType() EventType {
	return AlertCreatedEvent
}

func (e AlertCreated) Validate() error {
	return nil
}

type NotificationRequested struct {
	BaseEvent

	EventID   string `json:"event_id,omitempty"`
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
}

func (e NotificationRequested) GetType() EventType {
	return NotificationRequestedEvent
}

func (e NotificationRequested) Validate() error {
	if e.Recipient == "" {
		return ErrMissingRecipient
	}

	return nil
}

type VehicleCommandRequested struct {
	BaseEvent

	EventID   string `json:"event_id,omitempty"`
	VehicleID string `json:"vehicle_id"`
	Command   string `json:"command"`
	Reason    string `json:"reason,omitempty"`
}

func (e VehicleCommandRequested) GetType() EventType {
	return VehicleCommandRequestedEvent
}

func (e VehicleCommandRequested) Validate() error {
	if e.VehicleID == "" {
		return ErrMissingVehicleID
	}

	return nil
}

// Validatable is implemented by every event published on the bus.
type Validatable interface {
	GetType() EventType
	Validate() error
}

func validateExecutionRef(workflowID, executionID string) error {
	if workflowID == "" {
		return ErrMissingWorkflowID
	}

	if executionID == "" {
		return ErrMissingExecutionID
	}

	return nil
}
