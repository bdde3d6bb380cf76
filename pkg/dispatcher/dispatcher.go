// Package dispatcher runs a single configured workflow action against an
// event and reports the outcome as an ActionResult. Dispatch never panics and
// never returns an error; every failure is captured in the result.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/otelhelper"
	"github.com/dukex/fleetflow/pkg/protocol"
	"github.com/dukex/fleetflow/pkg/template"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 10 * time.Second

	// DefaultSettleGrace is how long an executor may still deliver its
	// outcome after its context is done.
	DefaultSettleGrace = 100 * time.Millisecond
)

var (
	ErrUnknownActionType = errors.New("unknown action type")
	ErrMissingParameter  = errors.New("missing required parameter")
	ErrActionPanicked    = errors.New("action panicked")
	ErrActionTimeout     = errors.New("action timed out")
	ErrCancelled         = errors.New("action cancelled")
	ErrEmptyAction       = errors.New("action is empty")
)

// ActionLookup resolves an executor for an action type. *registry.Registry
// implements it.
type ActionLookup interface {
	Action(actionType models.WorkflowActionType) (protocol.Action, bool)
}

type Dispatcher struct {
	actions ActionLookup
	timeout time.Duration
	grace   time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Dispatcher)

// WithTimeout bounds each executor call. Zero or negative disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithSettleGrace sets how long Dispatch waits for an executor that is
// finishing while its context ends.
func WithSettleGrace(grace time.Duration) Option {
	return func(d *Dispatcher) {
		d.grace = grace
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

func New(actions ActionLookup, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		actions: actions,
		timeout: DefaultTimeout,
		grace:   DefaultSettleGrace,
		logger:  logger.With("module", "dispatcher"),
		tracer:  otelhelper.NoopTracer(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type outcome struct {
	output map[string]any
	err    error
}

// Dispatch validates, resolves and executes action for event.
func (d *Dispatcher) Dispatch(ctx context.Context, action *models.WorkflowAction, event models.Event) (result models.ActionResult) {
	if action == nil {
		now := d.now().UTC()
		result = models.ActionResult{StartedAt: now, FinishedAt: now}
		fail(&result, models.ErrorKindUnknownActionType, ErrEmptyAction)

		return result
	}

	result = models.ActionResult{
		ActionID:   action.ID,
		ActionType: action.Type,
		Order:      action.Order,
		StartedAt:  d.now().UTC(),
	}

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.dispatch",
		attribute.String(otelhelper.ActionIDKey, action.ID),
		attribute.String(otelhelper.ActionTypeKey, string(action.Type)),
		attribute.String(otelhelper.EventTypeKey, string(event.Type)),
	)
	defer span.End()

	logger := d.logger.With("action_id", action.ID, "action_type", action.Type, "event_type", event.Type)

	defer func() {
		result.FinishedAt = d.now().UTC()
		result.Duration = result.FinishedAt.Sub(result.StartedAt)

		if result.Status == models.ActionFailed {
			otelhelper.SetError(span, errors.New(result.Error),
				attribute.String("error_kind", string(result.ErrorKind)))
			logger.WarnContext(ctx, "Action failed", "error_kind", result.ErrorKind, "error", result.Error)
		} else {
			logger.DebugContext(ctx, "Action succeeded", "duration", result.Duration)
		}
	}()

	executor, ok := d.actions.Action(action.Type)
	if !ok {
		fail(&result, models.ErrorKindUnknownActionType, fmt.Errorf("%w '%s'", ErrUnknownActionType, action.Type))

		return result
	}

	if missing := missingParameters(action); len(missing) > 0 {
		fail(&result, models.ErrorKindMissingParameter,
			fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", ")))

		return result
	}

	result.Parameters = template.ResolveParameters(action.Parameters, event.Payload)

	if err := ctx.Err(); err != nil {
		fail(&result, models.ErrorKindCancelled, fmt.Errorf("%w: %w", ErrCancelled, err))

		return result
	}

	actionCtx := ctx

	if d.timeout > 0 {
		var cancel context.CancelFunc

		actionCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)

	go func() {
		done <- d.invoke(actionCtx, executor, result.Parameters, event, logger)
	}()

	var out outcome

	select {
	case out = <-done:
	case <-actionCtx.Done():
		settle := time.NewTimer(d.grace)
		defer settle.Stop()

		select {
		case out = <-done:
		case <-settle.C:
			// The executor ignored its context; its eventual outcome is discarded.
			if ctx.Err() != nil {
				fail(&result, models.ErrorKindCancelled, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
			} else {
				fail(&result, models.ErrorKindTimeout, fmt.Errorf("%w after %s", ErrActionTimeout, d.timeout))
			}

			return result
		}
	}

	if out.err != nil {
		kind := models.ErrorKindExecutorError
		if !errors.Is(out.err, ErrActionPanicked) {
			kind = classify(ctx, actionCtx)
		}

		fail(&result, kind, out.err)

		return result
	}

	result.Status = models.ActionSucceeded
	result.Output = out.output

	return result
}

func (d *Dispatcher) invoke(ctx context.Context, executor protocol.Action, params map[string]any, event models.Event, logger *slog.Logger) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Action panicked", "panic", r, "stack", string(debug.Stack()))
			out = outcome{err: fmt.Errorf("%w: %v", ErrActionPanicked, r)}
		}
	}()

	output, err := executor.Execute(ctx, params, event, logger)

	return outcome{output: output, err: err}
}

// missingParameters returns the required parameter keys of action that are
// absent, null or blank strings, in declaration order.
func missingParameters(action *models.WorkflowAction) []string {
	var missing []string

	for _, key := range action.Type.RequiredParameters() {
		value, ok := action.Parameters[key]
		if !ok || value == nil {
			missing = append(missing, key)

			continue
		}

		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}

	return missing
}

// classify attributes an executor error to the dispatch context: a cancelled
// parent wins over an expired per-action deadline.
func classify(parent, actionCtx context.Context) models.ErrorKind {
	switch {
	case parent.Err() != nil:
		return models.ErrorKindCancelled
	case errors.Is(actionCtx.Err(), context.DeadlineExceeded):
		return models.ErrorKindTimeout
	default:
		return models.ErrorKindExecutorError
	}
}

func fail(result *models.ActionResult, kind models.ErrorKind, err error) {
	result.Status = models.ActionFailed
	result.ErrorKind = kind
	result.Error = err.Error()
}
