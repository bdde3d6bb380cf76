package template

import (
	"testing"

	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/stretchr/testify/assert"
)

func fleetPayload() payload.Value {
	return payload.FromAny(map[string]any{
		"vehicle": map[string]any{
			"registration": "AB-123",
			"speed":        120.5,
			"driver":       nil,
		},
		"geofence": map[string]any{"name": "Depot"},
		"stops":    []any{"North gate", "Dock 4"},
	})
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single placeholder", input: "Entered {geofence.name}", want: "Entered Depot"},
		{name: "several placeholders", input: "{vehicle.registration} at {vehicle.speed} km/h", want: "AB-123 at 120.5 km/h"},
		{name: "array index", input: "Next stop {stops.1}", want: "Next stop Dock 4"},
		{name: "unresolved left verbatim", input: "Driver {driver.name}", want: "Driver {driver.name}"},
		{name: "null resolves empty", input: "Driver [{vehicle.driver}]", want: "Driver []"},
		{name: "no placeholder", input: "plain text", want: "plain text"},
		{name: "braces without path", input: "json {} and { spaced }", want: "json {} and { spaced }"},
		{name: "object rendered as json", input: "{geofence}", want: `{"name":"Depot"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpolate(tt.input, fleetPayload()))
		})
	}
}

func TestUnresolved(t *testing.T) {
	paths := Unresolved("{vehicle.registration} {driver.name} {trailer}", fleetPayload())

	assert.Equal(t, []string{"driver.name", "trailer"}, paths)
}

func TestResolveParameters(t *testing.T) {
	params := map[string]any{
		"message":  "Entered {geofence.name}",
		"level":    "info",
		"critical": true,
		"limit":    90,
		"nested": map[string]any{
			"title": "{vehicle.registration}",
		},
		"recipients": []any{"ops@{geofence.name}", 7},
		"tags":       []string{"{vehicle.registration}"},
	}

	resolved := ResolveParameters(params, fleetPayload())

	assert.Equal(t, map[string]any{
		"message":  "Entered Depot",
		"level":    "info",
		"critical": true,
		"limit":    90,
		"nested": map[string]any{
			"title": "AB-123",
		},
		"recipients": []any{"ops@Depot", 7},
		"tags":       []string{"AB-123"},
	}, resolved)

	assert.Equal(t, "Entered {geofence.name}", params["message"])
	assert.Equal(t, "{vehicle.registration}", params["nested"].(map[string]any)["title"])
}

func TestResolveParameters_Nil(t *testing.T) {
	assert.Equal(t, map[string]any{}, ResolveParameters(nil, fleetPayload()))
}
