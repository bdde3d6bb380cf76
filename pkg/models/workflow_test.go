package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionIDs(actions []*WorkflowAction) []string {
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
	}

	return ids
}

func TestWorkflow_OrderedActions(t *testing.T) {
	tests := []struct {
		name    string
		actions []*WorkflowAction
		want    []string
	}{
		{
			name: "ascending order",
			actions: []*WorkflowAction{
				{ID: "notify", Order: 3},
				{ID: "alert", Order: 1},
				{ID: "lock", Order: 2},
			},
			want: []string{"alert", "lock", "notify"},
		},
		{
			name: "ties keep configured position",
			actions: []*WorkflowAction{
				{ID: "first", Order: 1},
				{ID: "second", Order: 1},
				{ID: "zero", Order: 0},
			},
			want: []string{"zero", "first", "second"},
		},
		{
			name: "extreme orders",
			actions: []*WorkflowAction{
				{ID: "a", Order: math.MaxInt},
				{ID: "b", Order: -10},
				{ID: "c", Order: 5},
				{ID: "d", Order: math.MinInt},
			},
			want: []string{"d", "b", "c", "a"},
		},
		{
			name:    "nil actions are dropped",
			actions: []*WorkflowAction{nil, {ID: "lock", Order: 2}, nil, {ID: "alert", Order: 1}},
			want:    []string{"alert", "lock"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Workflow{Actions: tt.actions}

			assert.Equal(t, tt.want, actionIDs(w.OrderedActions()))
			assert.Len(t, w.Actions, len(tt.actions), "configured actions are left untouched")
		})
	}
}

func TestWorkflow_CloneSkipsNilEntries(t *testing.T) {
	w := &Workflow{
		ID:         "w1",
		Triggers:   []*WorkflowTrigger{nil, {ID: "t1", Event: EventVehicleSpeeding, Conditions: map[string]any{"zone": "a"}}},
		Conditions: []*WorkflowCondition{nil},
		Actions:    []*WorkflowAction{{ID: "a1", Parameters: map[string]any{"message": "hi"}}, nil},
	}

	var clone *Workflow

	require.NotPanics(t, func() { clone = w.Clone() })

	require.Len(t, clone.Triggers, 1)
	assert.Equal(t, "t1", clone.Triggers[0].ID)
	assert.Empty(t, clone.Conditions)
	require.Len(t, clone.Actions, 1)

	clone.Triggers[0].Conditions["zone"] = "b"
	clone.Actions[0].Parameters["message"] = "changed"

	assert.Equal(t, "a", w.Triggers[1].Conditions["zone"])
	assert.Equal(t, "hi", w.Actions[0].Parameters["message"])
}

func TestWorkflow_WarningsWithNilAction(t *testing.T) {
	w := &Workflow{
		Triggers: []*WorkflowTrigger{{ID: "t1", Event: EventVehicleSpeeding}},
		Actions:  []*WorkflowAction{nil, {Type: "teleport"}},
	}

	var warnings []string

	require.NotPanics(t, func() { warnings = w.Warnings() })
	assert.Equal(t, []string{"unknown action type 'teleport'"}, warnings)
}
