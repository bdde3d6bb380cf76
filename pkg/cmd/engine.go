package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/fleetflow/pkg/engine"
	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/metrics"
	"github.com/dukex/fleetflow/pkg/otelhelper"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/dukex/fleetflow/pkg/registry"
	"github.com/dukex/fleetflow/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

// EngineDependencies are the collaborators an engine records executions to.
type EngineDependencies struct {
	Persistence persistence.Persistence
	Metrics     *metrics.Metrics
	Publisher   eventbus.EventPublisher
	Tracer      trace.Tracer
}

// NewEngine builds an engine over store that records every execution to the
// repository, the metrics and, when a publisher is given, the event bus.
func NewEngine(store *workflow.Store, reg *registry.Registry, logger *slog.Logger, config engine.Config, deps EngineDependencies) *engine.Engine {
	sinks := []engine.Sink{engine.NewPersistenceSink(deps.Persistence.ExecutionRepository())}

	if deps.Metrics != nil {
		sinks = append(sinks, engine.NewMetricsSink(deps.Metrics))
	}

	if deps.Publisher != nil {
		sinks = append(sinks, engine.NewEventBusSink(deps.Publisher))
	}

	opts := []engine.Option{engine.WithSinks(sinks...)}
	if deps.Tracer != nil {
		opts = append(opts, engine.WithTracer(deps.Tracer))
	}

	return engine.New(store, reg, logger, config, opts...)
}

// NewTracer returns an OTLP tracer when enabled and a no-op tracer otherwise.
// The shutdown func is always safe to call.
//
//nolint:ireturn
func NewTracer(ctx context.Context, enabled bool, serviceName string) (trace.Tracer, otelhelper.ShutdownFunc, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return tracer, shutdown, nil
}
