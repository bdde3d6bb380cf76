// Package engine runs fleet events through the workflow pipeline: trigger
// matching, condition evaluation, action dispatch and execution recording.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/fleetflow/pkg/condition"
	"github.com/dukex/fleetflow/pkg/dispatcher"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/otelhelper"
	"github.com/dukex/fleetflow/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidPayload       = errors.New("event payload must be an object")
	ErrWorkflowsUnavailable = errors.New("workflows unavailable")
)

// WorkflowSource supplies the workflows an event is matched against.
// *workflow.Store implements it.
type WorkflowSource interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
}

type Engine struct {
	source     WorkflowSource
	matcher    *workflow.TriggerMatcher
	dispatcher *dispatcher.Dispatcher
	sinks      []Sink
	config     Config
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() string
}

type Option func(*Engine)

func WithSinks(sinks ...Sink) Option {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sinks...)
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func New(source WorkflowSource, actions dispatcher.ActionLookup, logger *slog.Logger, config Config, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		matcher: workflow.NewTriggerMatcher(logger),
		config:  config.withDefaults(),
		logger:  logger.With("module", "engine"),
		tracer:  otelhelper.NoopTracer(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(e)
	}

	e.dispatcher = dispatcher.New(actions, logger,
		dispatcher.WithTimeout(e.config.ActionTimeout),
		dispatcher.WithTracer(e.tracer),
	)

	return e
}

// Process matches event against the current workflows and runs every match.
// Executions are returned in match order. Independent executions run
// concurrently; actions inside one execution run in ascending order.
//
// ErrWorkflowsUnavailable is returned with no executions when the workflow
// list cannot be read. ErrInvalidPayload is returned together with the
// failed executions of every match when the payload is not an object.
func (e *Engine) Process(ctx context.Context, event models.Event) ([]*models.WorkflowExecution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.process",
		attribute.String(otelhelper.EventIDKey, event.ID),
		attribute.String(otelhelper.EventTypeKey, string(event.Type)),
		attribute.String(otelhelper.ScopeKey, event.Scope),
	)
	defer span.End()

	logger := e.logger.With("event_id", event.ID, "event_type", event.Type)

	workflows, err := e.source.Workflows(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrWorkflowsUnavailable, err)
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Failed to load workflows", "error", err)

		return nil, err
	}

	matches := e.matcher.MatchWorkflows(event, workflows)
	if len(matches) == 0 {
		logger.DebugContext(ctx, "No workflows matched event")

		return nil, nil
	}

	if !event.Payload.IsObject() {
		err := fmt.Errorf("%w: got %s", ErrInvalidPayload, event.Payload.Kind())
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Aborting matching pass", "error", err, "matches", len(matches))

		executions := make([]*models.WorkflowExecution, len(matches))
		for i, match := range matches {
			rec := NewRecorder(e.newID(), match.Workflow, match.Trigger, event, e.now)
			_ = rec.Fail("", err.Error())
			executions[i] = rec.Execution()
			e.record(ctx, logger, rec.Execution(), event)
		}

		return executions, err
	}

	executions := make([]*models.WorkflowExecution, len(matches))

	g := new(errgroup.Group)
	g.SetLimit(e.config.MaxConcurrency)

	for i, match := range matches {
		g.Go(func() error {
			executions[i] = e.run(ctx, match, event)

			return nil
		})
	}

	_ = g.Wait()

	logger.InfoContext(ctx, "Event processed", "executions", len(executions))

	return executions, nil
}

func (e *Engine) run(ctx context.Context, match workflow.MatchResult, event models.Event) *models.WorkflowExecution {
	rec := NewRecorder(e.newID(), match.Workflow, match.Trigger, event, e.now)
	execution := rec.Execution()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execution",
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.WorkflowIDKey, match.Workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, match.Workflow.Name),
		attribute.String(otelhelper.TriggerIDKey, execution.TriggerID),
	)
	defer span.End()

	logger := e.logger.With(
		"execution_id", execution.ID,
		"workflow_id", match.Workflow.ID,
		"event_type", event.Type,
	)

	_ = rec.Start()

	met, results := condition.EvaluateAllTrace(match.Workflow.Conditions, event.Payload)
	_ = rec.RecordConditions(met, results)

	if !met {
		for _, r := range results {
			if r.Reason != "" {
				logger.DebugContext(ctx, "Condition could not be evaluated", "index", r.Index, "field", r.Field, "reason", r.Reason)
			}
		}

		_ = rec.Complete(models.NoteConditionsNotMet)
		e.record(ctx, logger, execution, event)

		return execution
	}

	e.dispatchAll(ctx, rec, match.Workflow.OrderedActions(), event)

	if !rec.Status().Terminal() {
		_ = rec.Complete("")
	}

	otelhelper.SetExecutionResult(span, execution)

	logger.InfoContext(ctx, "Workflow execution finished",
		"status", execution.Status,
		"actions", len(execution.ActionResults),
		"failed_actions", execution.FailedActions(),
		"duration", execution.Duration)

	e.record(ctx, logger, execution, event)

	return execution
}

// dispatchAll runs actions in order. A cancelled context or a failed critical
// action skips the rest and fails the execution; already dispatched actions
// are not rolled back.
func (e *Engine) dispatchAll(ctx context.Context, rec *Recorder, actions []*models.WorkflowAction, event models.Event) {
	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			_ = rec.Skip(actions[i:])
			_ = rec.Fail(models.ErrorKindCancelled, err.Error())

			return
		}

		result := e.dispatcher.Dispatch(ctx, action, event)
		_ = rec.RecordAction(result)

		switch {
		case result.ErrorKind == models.ErrorKindCancelled:
			_ = rec.Skip(actions[i+1:])
			_ = rec.Fail(models.ErrorKindCancelled, result.Error)

			return
		case result.Status == models.ActionFailed && action.Critical:
			_ = rec.Skip(actions[i+1:])
			_ = rec.Fail(result.ErrorKind, result.Error)

			return
		}
	}
}

// record hands a finalized execution to every sink. Sinks run even when ctx
// is already cancelled so cancelled executions are still persisted.
func (e *Engine) record(ctx context.Context, logger *slog.Logger, execution *models.WorkflowExecution, event models.Event) {
	ctx = context.WithoutCancel(ctx)

	for _, sink := range e.sinks {
		if err := sink.Record(ctx, execution, event); err != nil {
			logger.WarnContext(ctx, "Execution sink failed", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
}
