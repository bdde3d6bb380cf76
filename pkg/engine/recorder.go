package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
)

var ErrInvalidTransition = errors.New("invalid execution state transition")

// Recorder owns one WorkflowExecution and enforces its lifecycle:
// pending -> running -> completed | failed. A pending execution may also fail
// directly. Terminal executions accept no further changes.
type Recorder struct {
	execution *models.WorkflowExecution
	now       func() time.Time
}

func NewRecorder(id string, workflow *models.Workflow, trigger *models.WorkflowTrigger, event models.Event, now func() time.Time) *Recorder {
	execution := &models.WorkflowExecution{
		ID:           id,
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		EventID:      event.ID,
		EventType:    event.Type,
		Payload:      event.Payload,
		Status:       models.ExecutionPending,
		CreatedAt:    now().UTC(),
	}

	if trigger != nil {
		execution.TriggerID = trigger.ID
	}

	return &Recorder{execution: execution, now: now}
}

// Execution returns the record. It must not be modified by the caller while
// the recorder is still in use.
func (r *Recorder) Execution() *models.WorkflowExecution {
	return r.execution
}

func (r *Recorder) Status() models.ExecutionStatus {
	return r.execution.Status
}

func (r *Recorder) Start() error {
	if err := r.transition(models.ExecutionRunning); err != nil {
		return err
	}

	startedAt := r.now().UTC()
	r.execution.StartedAt = &startedAt

	return nil
}

func (r *Recorder) RecordConditions(met bool, results []models.ConditionResult) error {
	if err := r.requireRunning("record conditions"); err != nil {
		return err
	}

	r.execution.ConditionsMet = met
	r.execution.Conditions = results

	return nil
}

func (r *Recorder) RecordAction(result models.ActionResult) error {
	if err := r.requireRunning("record action"); err != nil {
		return err
	}

	r.execution.ActionResults = append(r.execution.ActionResults, result)

	return nil
}

// Skip records every action in actions as skipped.
func (r *Recorder) Skip(actions []*models.WorkflowAction) error {
	if err := r.requireRunning("skip actions"); err != nil {
		return err
	}

	at := r.now().UTC()

	for _, action := range actions {
		r.execution.ActionResults = append(r.execution.ActionResults, models.ActionResult{
			ActionID:   action.ID,
			ActionType: action.Type,
			Order:      action.Order,
			Status:     models.ActionSkipped,
			StartedAt:  at,
			FinishedAt: at,
		})
	}

	return nil
}

// Complete finalizes a running execution as completed.
func (r *Recorder) Complete(note string) error {
	if err := r.transition(models.ExecutionCompleted); err != nil {
		return err
	}

	r.execution.Note = note
	r.finalize()

	return nil
}

// Fail finalizes the execution as failed with the causing error.
func (r *Recorder) Fail(kind models.ErrorKind, message string) error {
	if err := r.transition(models.ExecutionFailed); err != nil {
		return err
	}

	r.execution.ErrorKind = kind
	r.execution.Error = message

	if kind == models.ErrorKindCancelled {
		r.execution.Note = models.NoteCancelled
	}

	r.finalize()

	return nil
}

func (r *Recorder) transition(to models.ExecutionStatus) error {
	from := r.execution.Status

	allowed := false

	switch from {
	case models.ExecutionPending:
		allowed = to == models.ExecutionRunning || to == models.ExecutionFailed
	case models.ExecutionRunning:
		allowed = to == models.ExecutionCompleted || to == models.ExecutionFailed
	}

	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	r.execution.Status = to

	return nil
}

func (r *Recorder) requireRunning(op string) error {
	if r.execution.Status != models.ExecutionRunning {
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, r.execution.Status)
	}

	return nil
}

func (r *Recorder) finalize() {
	finishedAt := r.now().UTC()
	r.execution.FinishedAt = &finishedAt

	if r.execution.StartedAt != nil {
		r.execution.Duration = finishedAt.Sub(*r.execution.StartedAt)
	}
}
