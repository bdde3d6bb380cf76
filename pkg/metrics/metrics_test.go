package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveExecution(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveExecution(&models.WorkflowExecution{
		WorkflowID: "w1",
		Status:     models.ExecutionCompleted,
		Duration:   15 * time.Millisecond,
		ActionResults: []models.ActionResult{
			{ActionType: models.ActionLogAlert, Status: models.ActionSucceeded},
			{ActionType: models.ActionCreateAlert, Status: models.ActionFailed, ErrorKind: models.ErrorKindExecutorError},
			{ActionType: models.ActionLockVehicle, Status: models.ActionSkipped},
		},
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("w1", "completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("create_alert", "failed", "ExecutorError")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("lock_vehicle", "skipped", "")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.ActionDuration))
}

func TestMetrics_ObserveReload(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReload(7, nil)
	m.ObserveReload(3, errors.New("db down"))
	m.ObserveEvent(models.EventDeviceOffline)

	assert.InDelta(t, 7, testutil.ToFloat64(m.WorkflowsLoaded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SnapshotReloadsTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsTotal.WithLabelValues("device_offline")), 0)
}
