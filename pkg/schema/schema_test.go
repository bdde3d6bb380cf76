package schema

import (
	"errors"
	"testing"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		eventType models.WorkflowEventType
		payload   any
		violation string
	}{
		{
			name:      "vehicle location",
			eventType: models.EventVehicleLocationUpdated,
			payload: map[string]any{
				"vehicle":  map[string]any{"id": "v-1", "speed": 42.5},
				"location": map[string]any{"latitude": 52.37, "longitude": 4.89},
			},
		},
		{
			name:      "numeric vehicle id",
			eventType: models.EventVehicleIgnitionOn,
			payload:   map[string]any{"vehicle": map[string]any{"id": 17}},
		},
		{
			name:      "missing vehicle",
			eventType: models.EventVehicleSpeeding,
			payload:   map[string]any{"speed": 120},
			violation: "vehicle is required",
		},
		{
			name:      "latitude out of range",
			eventType: models.EventVehicleLocationUpdated,
			payload: map[string]any{
				"vehicle":  map[string]any{"id": "v-1"},
				"location": map[string]any{"latitude": 95, "longitude": 4.89},
			},
			violation: "location.latitude",
		},
		{
			name:      "device",
			eventType: models.EventDeviceOffline,
			payload:   map[string]any{"device": map[string]any{"id": "imei-1"}},
		},
		{
			name:      "driver without id",
			eventType: models.EventDriverAssigned,
			payload:   map[string]any{"driver": map[string]any{"name": "Ana"}},
			violation: "id is required",
		},
		{
			name:      "alert severity",
			eventType: models.EventAlertCreated,
			payload:   map[string]any{"alert": map[string]any{"id": "a-1", "severity": "fatal"}},
			violation: "alert.severity",
		},
		{
			name:      "non object payload",
			eventType: models.EventDeviceOnline,
			payload:   []any{1, 2},
			violation: "Invalid type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.eventType, payload.FromAny(tt.payload))

			if tt.violation == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, ErrInvalidPayload)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Contains(t, validationErr.Error(), tt.violation)
		})
	}
}

func TestValidator_UnknownEventType(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	err = validator.Validate("vehicle_teleported", payload.Object(nil))
	require.ErrorIs(t, err, ErrUnknownEventType)
}

func TestSchema(t *testing.T) {
	for _, entity := range []string{models.EntityVehicle, models.EntityDevice, models.EntityDriver, models.EntityAlert} {
		data, err := Schema(entity)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"required"`)
	}

	_, err := Schema("trailer")
	require.Error(t, err)
}
