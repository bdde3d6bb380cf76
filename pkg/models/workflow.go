// Package models defines the core domain models for fleet workflow automation.
package models

import (
	"cmp"
	"slices"
	"time"
)

// Workflow is a named, independently activatable automation unit.
type Workflow struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"                  validate:"required,min=3"`
	Description string               `json:"description"`
	Scope       string               `json:"scope,omitempty"`
	IsActive    bool                 `json:"is_active"`
	Triggers    []*WorkflowTrigger   `json:"triggers"              validate:"dive"`
	Conditions  []*WorkflowCondition `json:"conditions"            validate:"dive"`
	Actions     []*WorkflowAction    `json:"actions"               validate:"dive"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	DeletedAt   *time.Time           `json:"deleted_at,omitempty"`
}

// Warnings reports configurations that are valid but probably not intended.
func (w *Workflow) Warnings() []string {
	var warnings []string

	if len(w.Triggers) == 0 {
		warnings = append(warnings, "workflow has no triggers and will never fire")
	}

	if len(w.Actions) == 0 {
		warnings = append(warnings, "workflow has no actions and will have no effect")
	}

	for _, action := range w.Actions {
		if action != nil && !action.Type.Valid() {
			warnings = append(warnings, "unknown action type '"+string(action.Type)+"'")
		}
	}

	return warnings
}

// OrderedActions returns the non-nil actions sorted by ascending Order. Ties
// keep their configured position.
func (w *Workflow) OrderedActions() []*WorkflowAction {
	actions := slices.DeleteFunc(slices.Clone(w.Actions), func(a *WorkflowAction) bool {
		return a == nil
	})
	slices.SortStableFunc(actions, func(a, b *WorkflowAction) int {
		return cmp.Compare(a.Order, b.Order)
	})

	return actions
}

// Clone returns a deep copy of w without nil triggers, conditions or actions.
// Payload-like maps are copied one level deep; values inside them are treated
// as immutable.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	out := *w

	out.Triggers = make([]*WorkflowTrigger, 0, len(w.Triggers))
	for _, trigger := range w.Triggers {
		if trigger == nil {
			continue
		}

		t := *trigger
		t.Conditions = cloneMap(trigger.Conditions)
		out.Triggers = append(out.Triggers, &t)
	}

	out.Conditions = make([]*WorkflowCondition, 0, len(w.Conditions))
	for _, condition := range w.Conditions {
		if condition == nil {
			continue
		}

		c := *condition
		out.Conditions = append(out.Conditions, &c)
	}

	out.Actions = make([]*WorkflowAction, 0, len(w.Actions))
	for _, action := range w.Actions {
		if action == nil {
			continue
		}

		a := *action
		a.Parameters = cloneMap(action.Parameters)
		out.Actions = append(out.Actions, &a)
	}

	if w.DeletedAt != nil {
		deletedAt := *w.DeletedAt
		out.DeletedAt = &deletedAt
	}

	return &out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
