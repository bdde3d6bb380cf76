package engine

import (
	"context"
	"fmt"

	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/events"
	"github.com/dukex/fleetflow/pkg/metrics"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
)

// Sink receives every finalized execution. Errors are logged by the engine
// and never change the execution.
type Sink interface {
	Record(ctx context.Context, execution *models.WorkflowExecution, event models.Event) error
}

type SinkFunc func(ctx context.Context, execution *models.WorkflowExecution, event models.Event) error

func (f SinkFunc) Record(ctx context.Context, execution *models.WorkflowExecution, event models.Event) error {
	return f(ctx, execution, event)
}

// PersistenceSink appends executions to the execution repository.
type PersistenceSink struct {
	repo persistence.ExecutionRepository
}

func NewPersistenceSink(repo persistence.ExecutionRepository) *PersistenceSink {
	return &PersistenceSink{repo: repo}
}

func (s *PersistenceSink) Record(ctx context.Context, execution *models.WorkflowExecution, _ models.Event) error {
	if err := s.repo.Append(ctx, execution); err != nil {
		return fmt.Errorf("failed to append execution: %w", err)
	}

	return nil
}

type MetricsSink struct {
	metrics *metrics.Metrics
}

func NewMetricsSink(m *metrics.Metrics) *MetricsSink {
	return &MetricsSink{metrics: m}
}

func (s *MetricsSink) Record(_ context.Context, execution *models.WorkflowExecution, _ models.Event) error {
	s.metrics.ObserveExecution(execution)

	return nil
}

// EventBusSink announces finished executions as workflow.execution.completed
// or workflow.execution.failed.
type EventBusSink struct {
	publisher eventbus.EventPublisher
}

func NewEventBusSink(publisher eventbus.EventPublisher) *EventBusSink {
	return &EventBusSink{publisher: publisher}
}

func (s *EventBusSink) Record(ctx context.Context, execution *models.WorkflowExecution, event models.Event) error {
	lifecycle := events.NewExecutionEvent(execution, event.Scope)

	if err := s.publisher.Publish(ctx, execution.WorkflowID, lifecycle); err != nil {
		return fmt.Errorf("failed to publish %s: %w", lifecycle.GetType(), err)
	}

	return nil
}
