// Package metrics exposes Prometheus instruments for workflow processing.
package metrics

import (
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EventsTotal          *prometheus.CounterVec
	ExecutionsTotal      *prometheus.CounterVec
	ExecutionDuration    *prometheus.HistogramVec
	ActionsTotal         *prometheus.CounterVec
	ActionDuration       *prometheus.HistogramVec
	WorkflowsLoaded      prometheus.Gauge
	SnapshotReloadsTotal *prometheus.CounterVec
}

// New registers the fleetflow instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetflow_events_total",
				Help: "Total number of fleet events processed by event type",
			},
			[]string{"event_type"},
		),
		ExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetflow_executions_total",
				Help: "Total number of workflow executions by status",
			},
			[]string{"workflow_id", "status"},
		),
		ExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fleetflow_execution_duration_seconds",
				Help:    "Workflow execution duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"workflow_id"},
		),
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetflow_actions_total",
				Help: "Total number of dispatched actions by type, status and error kind",
			},
			[]string{"action_type", "status", "error_kind"},
		),
		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fleetflow_action_duration_seconds",
				Help:    "Action execution duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"action_type"},
		),
		WorkflowsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fleetflow_workflows_loaded",
				Help: "Number of workflows in the current snapshot",
			},
		),
		SnapshotReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetflow_snapshot_reloads_total",
				Help: "Total number of workflow snapshot reloads by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveExecution records a finalized execution and its action results.
func (m *Metrics) ObserveExecution(execution *models.WorkflowExecution) {
	m.ExecutionsTotal.WithLabelValues(execution.WorkflowID, string(execution.Status)).Inc()
	m.ExecutionDuration.WithLabelValues(execution.WorkflowID).Observe(execution.Duration.Seconds())

	for _, result := range execution.ActionResults {
		m.ActionsTotal.WithLabelValues(string(result.ActionType), string(result.Status), string(result.ErrorKind)).Inc()

		if result.Status != models.ActionSkipped {
			m.ActionDuration.WithLabelValues(string(result.ActionType)).Observe(result.Duration.Seconds())
		}
	}
}

func (m *Metrics) ObserveEvent(eventType models.WorkflowEventType) {
	m.EventsTotal.WithLabelValues(string(eventType)).Inc()
}

// ObserveReload records a snapshot reload; count is ignored on failure.
func (m *Metrics) ObserveReload(count int, err error) {
	if err != nil {
		m.SnapshotReloadsTotal.WithLabelValues("error").Inc()

		return
	}

	m.SnapshotReloadsTotal.WithLabelValues("ok").Inc()
	m.WorkflowsLoaded.Set(float64(count))
}
