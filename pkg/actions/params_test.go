package actions

import (
	"testing"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestStringParam(t *testing.T) {
	params := map[string]any{
		"text":   "  hello ",
		"number": 42,
		"float":  1.5,
		"bool":   true,
		"nil":    nil,
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"text", "hello"},
		{"number", "42"},
		{"float", "1.5"},
		{"bool", "true"},
		{"nil", ""},
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, StringParam(params, tt.key))
		})
	}
}

func TestEntityID(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		entity   string
		expected string
	}{
		{
			name:     "nested id",
			payload:  map[string]any{"vehicle": map[string]any{"id": "v-1"}},
			entity:   models.EntityVehicle,
			expected: "v-1",
		},
		{
			name:     "numeric nested id",
			payload:  map[string]any{"vehicle": map[string]any{"id": 17}},
			entity:   models.EntityVehicle,
			expected: "17",
		},
		{
			name:     "flat id",
			payload:  map[string]any{"device_id": "d-9"},
			entity:   models.EntityDevice,
			expected: "d-9",
		},
		{
			name:     "object id is ignored",
			payload:  map[string]any{"driver": map[string]any{"id": map[string]any{"x": 1}}},
			entity:   models.EntityDriver,
			expected: "",
		},
		{
			name:     "missing",
			payload:  map[string]any{"speed": 90},
			entity:   models.EntityVehicle,
			expected: "",
		},
		{
			name:     "no entity",
			payload:  map[string]any{"vehicle": map[string]any{"id": "v-1"}},
			entity:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := models.NewEvent(models.EventVehicleSpeeding, tt.payload)
			assert.Equal(t, tt.expected, EntityID(event, tt.entity))
		})
	}
}
