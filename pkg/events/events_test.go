package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutionEvent(t *testing.T) {
	completed := &models.WorkflowExecution{
		ID:            "exec-1",
		WorkflowID:    "wf-1",
		EventType:     models.EventVehicleSpeeding,
		Status:        models.ExecutionCompleted,
		ConditionsMet: true,
		ActionResults: []models.ActionResult{
			{Status: models.ActionSucceeded},
			{Status: models.ActionFailed},
		},
		Duration: time.Second,
	}

	event := NewExecutionEvent(completed, "fleet-a")
	require.NoError(t, event.Validate())
	assert.Equal(t, WorkflowExecutionCompletedEvent, event.GetType())

	c, ok := event.(*WorkflowExecutionCompleted)
	require.True(t, ok)
	assert.Equal(t, 2, c.ActionCount)
	assert.Equal(t, 1, c.FailedActions)
	assert.Equal(t, "fleet-a", c.Scope)

	failed := &models.WorkflowExecution{
		ID:         "exec-2",
		WorkflowID: "wf-1",
		Status:     models.ExecutionFailed,
		ErrorKind:  models.ErrorKindCancelled,
		Error:      "context canceled",
	}

	event = NewExecutionEvent(failed, "")
	assert.Equal(t, WorkflowExecutionFailedEvent, event.GetType())

	f, ok := event.(*WorkflowExecutionFailed)
	require.True(t, ok)
	assert.Equal(t, models.ErrorKindCancelled, f.ErrorKind)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Validatable
		wantErr error
	}{
		{name: "fleet event without type", event: &FleetEventReceived{}, wantErr: ErrMissingEventType},
		{name: "fleet event", event: NewFleetEventReceived(models.Event{Type: models.EventDeviceOffline})},
		{name: "completed without workflow", event: &WorkflowExecutionCompleted{ExecutionID: "e"}, wantErr: ErrMissingWorkflowID},
		{name: "failed without execution", event: &WorkflowExecutionFailed{WorkflowID: "w"}, wantErr: ErrMissingExecutionID},
		{name: "notification without recipient", event: &NotificationRequested{Message: "hi"}, wantErr: ErrMissingRecipient},
		{name: "vehicle command without vehicle", event: &VehicleCommandRequested{Command: "lock"}, wantErr: ErrMissingVehicleID},
		{name: "vehicle command", event: &VehicleCommandRequested{VehicleID: "v-1", Command: "lock"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFleetEventReceived_CarriesPayload(t *testing.T) {
	original := NewFleetEventReceived(models.NewEvent(models.EventVehicleEnteredGeofence, map[string]any{
		"geofence": map[string]any{"name": "Depot"},
	}))

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"vehicle_entered_geofence"`)

	var decoded FleetEventReceived
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Depot", decoded.Event.Payload.Lookup("geofence.name").Text())
	assert.Equal(t, original.ID, decoded.ID)
}
