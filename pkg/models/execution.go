package models

import (
	"time"

	"github.com/dukex/fleetflow/pkg/payload"
)

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// ActionStatus is the outcome of one dispatched action.
type ActionStatus string

const (
	ActionSucceeded ActionStatus = "succeeded"
	ActionFailed    ActionStatus = "failed"
	ActionSkipped   ActionStatus = "skipped"
)

// ErrorKind classifies action and execution failures.
type ErrorKind string

const (
	ErrorKindUnknownActionType ErrorKind = "UnknownActionType"
	ErrorKindMissingParameter  ErrorKind = "MissingParameter"
	ErrorKindExecutorError     ErrorKind = "ExecutorError"
	ErrorKindTimeout           ErrorKind = "Timeout"
	ErrorKindCancelled         ErrorKind = "Cancelled"
)

// Execution notes recorded when a run ends without dispatching everything.
const (
	NoteConditionsNotMet = "skipped: conditions not met"
	NoteCancelled        = "Cancelled"
)

// ActionResult is the itemized outcome of one action in an execution.
type ActionResult struct {
	ActionID   string             `json:"action_id,omitempty"`
	ActionType WorkflowActionType `json:"action_type"`
	Order      int                `json:"order"`
	Status     ActionStatus       `json:"status"`
	Parameters map[string]any     `json:"parameters,omitempty"`
	Output     map[string]any     `json:"output,omitempty"`
	ErrorKind  ErrorKind          `json:"error_kind,omitempty"`
	Error      string             `json:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Duration   time.Duration      `json:"duration"`
}

// WorkflowExecution is the append-only record of one workflow run.
type WorkflowExecution struct {
	ID            string             `json:"id"`
	WorkflowID    string             `json:"workflow_id"`
	WorkflowName  string             `json:"workflow_name"`
	TriggerID     string             `json:"trigger_id,omitempty"`
	EventID       string             `json:"event_id,omitempty"`
	EventType     WorkflowEventType  `json:"event_type"`
	Payload       payload.Value      `json:"payload"`
	Status        ExecutionStatus    `json:"status"`
	Conditions    []ConditionResult  `json:"conditions,omitempty"`
	ConditionsMet bool               `json:"conditions_met"`
	ActionResults []ActionResult     `json:"action_results,omitempty"`
	Note          string             `json:"note,omitempty"`
	ErrorKind     ErrorKind          `json:"error_kind,omitempty"`
	Error         string             `json:"error,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	StartedAt     *time.Time         `json:"started_at,omitempty"`
	FinishedAt    *time.Time         `json:"finished_at,omitempty"`
	Duration      time.Duration      `json:"duration"`
}

// FailedActions returns the number of failed action results.
func (e *WorkflowExecution) FailedActions() int {
	count := 0

	for _, r := range e.ActionResults {
		if r.Status == ActionFailed {
			count++
		}
	}

	return count
}
