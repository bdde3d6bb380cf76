package otelhelper

import (
	"errors"

	"github.com/dukex/fleetflow/pkg/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ExecutionStatusKey = "fleetflow.execution.status"
	FailedActionsKey   = "fleetflow.execution.failed_actions"
	ErrorKindKey       = "fleetflow.error.kind"
)

// SetError marks span failed; attrs are attached to the error event.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// SetExecutionResult tags span with the outcome of a finalized execution.
// Only failed executions mark the span as an error; failed non-critical
// actions are counted but leave the status unset.
func SetExecutionResult(span trace.Span, execution *models.WorkflowExecution) {
	span.SetAttributes(
		attribute.String(ExecutionStatusKey, string(execution.Status)),
		attribute.Int(FailedActionsKey, execution.FailedActions()),
	)

	if execution.Status == models.ExecutionFailed {
		SetError(span, errors.New(execution.Error), attribute.String(ErrorKindKey, string(execution.ErrorKind)))
	}
}
