package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/fleetflow/pkg/engine"
	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/events"
	"github.com/dukex/fleetflow/pkg/metrics"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
	"github.com/google/uuid"
)

type EventProcessor interface {
	Process(ctx context.Context, event models.Event) ([]*models.WorkflowExecution, error)
}

// WorkerManager feeds fleet events from the event bus and any configured
// receivers into the engine.
type WorkerManager struct {
	id        string
	logger    *slog.Logger
	processor EventProcessor
	eventBus  eventbus.EventSubscriber
	metrics   *metrics.Metrics
	receivers []protocol.Receiver
}

func NewWorkerManager(
	id string,
	processor EventProcessor,
	eventBus eventbus.EventSubscriber,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	receivers ...protocol.Receiver,
) *WorkerManager {
	return &WorkerManager{
		id:        id,
		logger:    logger.With("module", "fleetflow-worker", "worker_id", id),
		processor: processor,
		eventBus:  eventBus,
		metrics:   metrics,
		receivers: receivers,
	}
}

// Start subscribes to the event bus and starts the receivers. It returns once
// everything is listening.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.eventBus.Handle(events.FleetEventReceivedEvent, w.handleFleetEventReceived)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	for _, receiver := range w.receivers {
		if err := receiver.Start(ctx, w.processEvent); err != nil {
			w.logger.ErrorContext(ctx, "Failed to start receiver", "error", err)

			return err
		}
	}

	w.logger.InfoContext(ctx, "Worker started successfully", "receivers", len(w.receivers))

	return nil
}

// Stop stops the receivers; the event bus is closed by its owner.
func (w *WorkerManager) Stop(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Shutting down worker...")

	var errs []error

	for _, receiver := range w.receivers {
		if err := receiver.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (w *WorkerManager) handleFleetEventReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.FleetEventReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for FleetEventReceived")

		return nil
	}

	if err := received.Validate(); err != nil {
		w.logger.WarnContext(ctx, "Dropping invalid fleet event", "error", err)

		return nil
	}

	return w.processEvent(ctx, received.Event)
}

// processEvent runs one event through the engine. Only an unavailable
// workflow list is returned as an error so the bus redelivers the message.
func (w *WorkerManager) processEvent(ctx context.Context, event models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	logger := w.logger.With("event_id", event.ID, "event_type", event.Type)

	w.metrics.ObserveEvent(event.Type)

	executions, err := w.processor.Process(ctx, event)

	switch {
	case errors.Is(err, engine.ErrWorkflowsUnavailable):
		logger.ErrorContext(ctx, "Workflows unavailable, event will be retried", "error", err)

		return err
	case err != nil:
		logger.WarnContext(ctx, "Event rejected", "error", err, "executions", len(executions))

		return nil
	}

	failed := 0

	for _, execution := range executions {
		if execution.Status == models.ExecutionFailed {
			failed++
		}
	}

	logger.DebugContext(ctx, "Fleet event processed", "executions", len(executions), "failed", failed)

	return nil
}
