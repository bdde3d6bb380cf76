package workflow

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/stretchr/testify/assert"
)

func speedingWorkflow(id string, active bool, triggers ...*models.WorkflowTrigger) *models.Workflow {
	return &models.Workflow{
		ID:       id,
		Name:     "Speeding " + id,
		IsActive: active,
		Triggers: triggers,
	}
}

func trigger(id string, event models.WorkflowEventType, active bool, conditions map[string]any) *models.WorkflowTrigger {
	return &models.WorkflowTrigger{ID: id, Event: event, IsActive: active, Conditions: conditions}
}

func matchedIDs(results []MatchResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Workflow.ID+"/"+r.Trigger.ID)
	}

	return ids
}

func TestTriggerMatcher_MatchWorkflows(t *testing.T) {
	deletedAt := time.Now()
	deleted := speedingWorkflow("deleted", true, trigger("t", models.EventVehicleSpeeding, true, nil))
	deleted.DeletedAt = &deletedAt

	scoped := speedingWorkflow("fleet-b-only", true, trigger("t", models.EventVehicleSpeeding, true, nil))
	scoped.Scope = "fleet-b"

	workflows := []*models.Workflow{
		speedingWorkflow("active", true, trigger("t1", models.EventVehicleSpeeding, true, nil)),
		speedingWorkflow("inactive-workflow", false, trigger("t1", models.EventVehicleSpeeding, true, nil)),
		speedingWorkflow("inactive-trigger", true, trigger("t1", models.EventVehicleSpeeding, false, nil)),
		speedingWorkflow("other-event", true, trigger("t1", models.EventVehicleIgnitionOn, true, nil)),
		speedingWorkflow("no-triggers", true),
		speedingWorkflow("two-triggers", true,
			trigger("t1", models.EventVehicleSpeeding, true, nil),
			trigger("t2", models.EventVehicleSpeeding, true, map[string]any{"zone": "school"}),
			trigger("t3", models.EventVehicleSpeeding, true, map[string]any{"zone": "highway"}),
		),
		deleted,
		scoped,
		nil,
	}

	event := models.NewEvent(models.EventVehicleSpeeding, map[string]any{"zone": "school", "speed": 70})
	event.Scope = "fleet-a"

	results := NewTriggerMatcher(slog.Default()).MatchWorkflows(event, workflows)

	assert.ElementsMatch(t, []string{"active/t1", "two-triggers/t1", "two-triggers/t2"}, matchedIDs(results))
}

func TestTriggerMatcher_UnscopedEventSeesAllScopes(t *testing.T) {
	scoped := speedingWorkflow("fleet-b-only", true, trigger("t", models.EventDeviceOffline, true, nil))
	scoped.Scope = "fleet-b"

	results := NewTriggerMatcher(slog.Default()).MatchWorkflows(
		models.NewEvent(models.EventDeviceOffline, nil),
		[]*models.Workflow{scoped},
	)

	assert.Len(t, results, 1)
}

func TestTriggerMatcher_InactiveNeverMatches(t *testing.T) {
	matcher := NewTriggerMatcher(slog.Default())

	for _, eventType := range models.EventTypes() {
		workflows := []*models.Workflow{
			speedingWorkflow("off", false, trigger("t", eventType, true, nil)),
			speedingWorkflow("trigger-off", true, trigger("t", eventType, false, nil)),
		}

		results := matcher.MatchWorkflows(models.NewEvent(eventType, nil), workflows)
		assert.Empty(t, results, "event type %s", eventType)
	}
}

func TestMatchTriggerConditions(t *testing.T) {
	data := payload.FromAny(map[string]any{
		"zone":     "school",
		"speed":    "70",
		"ignition": true,
		"vehicle":  map[string]any{"type": "truck"},
		"note":     nil,
	})

	tests := []struct {
		name       string
		conditions map[string]any
		expected   bool
	}{
		{name: "no conditions", conditions: nil, expected: true},
		{name: "string equality", conditions: map[string]any{"zone": "school"}, expected: true},
		{name: "numeric coercion", conditions: map[string]any{"speed": 70}, expected: true},
		{name: "bool", conditions: map[string]any{"ignition": true}, expected: true},
		{name: "all keys must hold", conditions: map[string]any{"zone": "school", "speed": 80}, expected: false},
		{name: "missing key", conditions: map[string]any{"driver": "x"}, expected: false},
		{name: "nested path is not resolved", conditions: map[string]any{"vehicle.type": "truck"}, expected: false},
		{name: "null matches empty", conditions: map[string]any{"note": ""}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchTriggerConditions(tt.conditions, data))
		})
	}
}
