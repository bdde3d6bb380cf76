package condition

import (
	"slices"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
)

// EvaluateAll folds conditions left to right. Each condition's logical
// operator says how it combines with the running result of the conditions
// before it; the first condition's operator is ignored. AND and OR have equal
// precedence. Nil entries are skipped. An empty list is an unconditional
// match.
func EvaluateAll(conditions []*models.WorkflowCondition, p payload.Value) bool {
	conditions = present(conditions)
	if len(conditions) == 0 {
		return true
	}

	result := Evaluate(*conditions[0], p)

	for i := 1; i < len(conditions); i++ {
		if !result && onlyAndRemain(conditions[i:]) {
			return false
		}

		result = combine(result, conditions[i].LogicalOperator, Evaluate(*conditions[i], p))
	}

	return result
}

// EvaluateAllTrace computes the same verdict as EvaluateAll but evaluates
// every condition and returns its itemized result for the execution log.
func EvaluateAllTrace(conditions []*models.WorkflowCondition, p payload.Value) (bool, []models.ConditionResult) {
	conditions = present(conditions)
	if len(conditions) == 0 {
		return true, nil
	}

	results := make([]models.ConditionResult, 0, len(conditions))
	verdict := false

	for i, c := range conditions {
		outcome, reason := Explain(*c, p)

		logical := normalize(c.LogicalOperator)
		if i == 0 {
			verdict = outcome
		} else {
			verdict = combine(verdict, logical, outcome)
		}

		results = append(results, models.ConditionResult{
			Index:           i,
			Field:           c.Field,
			Operator:        c.Operator,
			LogicalOperator: logical,
			Result:          outcome,
			Reason:          reason,
		})
	}

	return verdict, results
}

func combine(running bool, op models.LogicalOperator, next bool) bool {
	if normalize(op) == models.LogicalOr {
		return running || next
	}

	return running && next
}

func normalize(op models.LogicalOperator) models.LogicalOperator {
	if op == models.LogicalOr {
		return models.LogicalOr
	}

	return models.LogicalAnd
}

func onlyAndRemain(conditions []*models.WorkflowCondition) bool {
	for _, c := range conditions {
		if normalize(c.LogicalOperator) == models.LogicalOr {
			return false
		}
	}

	return true
}

func present(conditions []*models.WorkflowCondition) []*models.WorkflowCondition {
	if !slices.Contains(conditions, nil) {
		return conditions
	}

	return slices.DeleteFunc(slices.Clone(conditions), func(c *models.WorkflowCondition) bool {
		return c == nil
	})
}
