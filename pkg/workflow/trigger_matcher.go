// Package workflow matches events against workflow triggers and holds the
// snapshot of workflows the engine evaluates.
package workflow

import (
	"log/slog"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/dukex/fleetflow/pkg/persistence"
)

// TriggerMatcher selects the workflow triggers an event should fire.
type TriggerMatcher struct {
	logger *slog.Logger
}

// MatchResult pairs a workflow with the trigger that matched the event.
type MatchResult struct {
	Workflow *models.Workflow
	Trigger  *models.WorkflowTrigger
}

// NewTriggerMatcher creates a new trigger matcher
func NewTriggerMatcher(logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// MatchWorkflows returns one result per active trigger, on an active workflow
// visible in the event's scope, that binds the event's type and whose
// trigger-local conditions hold. Matching is read-only.
func (tm *TriggerMatcher) MatchWorkflows(event models.Event, workflows []*models.Workflow) []MatchResult {
	var results []MatchResult

	for _, workflow := range workflows {
		if workflow == nil || !workflow.IsActive || workflow.DeletedAt != nil {
			continue
		}

		if !persistence.VisibleInScope(workflow.Scope, event.Scope) {
			continue
		}

		for _, trigger := range workflow.Triggers {
			if !tm.matchTrigger(event, trigger) {
				continue
			}

			results = append(results, MatchResult{Workflow: workflow, Trigger: trigger})

			tm.logger.Debug("Found matching workflow",
				"workflow_id", workflow.ID,
				"workflow_name", workflow.Name,
				"trigger_id", trigger.ID)
		}
	}

	tm.logger.Debug("Completed trigger matching",
		"event_type", event.Type,
		"workflows_count", len(workflows),
		"matches_found", len(results))

	return results
}

func (tm *TriggerMatcher) matchTrigger(event models.Event, trigger *models.WorkflowTrigger) bool {
	if trigger == nil || !trigger.IsActive || trigger.Event != event.Type {
		return false
	}

	return MatchTriggerConditions(trigger.Conditions, event.Payload)
}

// MatchTriggerConditions is the coarse trigger-level filter: every key must
// exist at the top level of the payload with a loosely equal value. Nested
// objects are not descended into.
func MatchTriggerConditions(conditions map[string]any, data payload.Value) bool {
	for key, expected := range conditions {
		actual := data.Get(key)
		if actual.IsAbsent() {
			return false
		}

		if !payload.LooselyEqual(actual, payload.FromAny(expected)) {
			return false
		}
	}

	return true
}
