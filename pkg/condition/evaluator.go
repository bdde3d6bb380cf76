// Package condition evaluates workflow conditions against event payloads.
// Evaluation is pure: it never mutates its inputs, never logs and never
// fails. Operands that cannot be compared make the condition false.
package condition

import (
	"strings"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
)

// Keys of the before/after state carried by a payload field for the change
// detection operators, e.g. {"status": {"previous": "active", "current": "inactive"}}.
const (
	PreviousKey = "previous"
	CurrentKey  = "current"
)

// Reasons explaining why a condition degraded to false.
const (
	ReasonUnknownOperator  = "unknown operator"
	ReasonNonNumericValue  = "comparison value is not numeric"
	ReasonNonNumericField  = "field value is not numeric"
	ReasonNonScalarValue   = "comparison value is not a scalar"
	ReasonMissingChange    = "field does not carry previous and current values"
	ReasonFieldNotResolved = "field not present in payload"
	ReasonNullField        = "field is null"
)

// Evaluate reports whether condition c holds for the payload p.
func Evaluate(c models.WorkflowCondition, p payload.Value) bool {
	result, _ := Explain(c, p)

	return result
}

// Explain evaluates c against p and, when the result is false because an
// operand could not be interpreted, returns the reason.
func Explain(c models.WorkflowCondition, p payload.Value) (bool, string) {
	if !c.Operator.Valid() {
		return false, ReasonUnknownOperator
	}

	field := p.Lookup(c.Field)

	// Operators that take no operand must never consult c.Value.
	if !c.Operator.RequiresValue() {
		return evaluateUnary(c.Operator, field)
	}

	expected := payload.FromAny(c.Value)

	switch c.Operator.ValueType() {
	case models.ValueTypeNumber:
		if !expected.IsNumeric() {
			return false, ReasonNonNumericValue
		}
	case models.ValueTypeString:
		if !expected.IsScalar() {
			return false, ReasonNonScalarValue
		}
	}

	return evaluateBinary(c.Operator, field, expected)
}

func evaluateUnary(op models.WorkflowConditionOperator, field payload.Value) (bool, string) {
	switch op {
	case models.OperatorIsNull:
		return field.IsNullish(), ""
	case models.OperatorIsNotNull:
		return !field.IsNullish(), ""
	case models.OperatorIsTrue:
		return field.Truthy(), ""
	case models.OperatorIsFalse:
		switch {
		case field.IsAbsent():
			return false, ReasonFieldNotResolved
		case field.IsNull():
			return false, ReasonNullField
		}

		return !field.Truthy(), ""
	case models.OperatorChanged:
		previous, current, ok := changeState(field)
		if !ok {
			return false, ReasonMissingChange
		}

		return !payload.LooselyEqual(previous, current), ""
	default:
		return false, ReasonUnknownOperator
	}
}

func evaluateBinary(op models.WorkflowConditionOperator, field, expected payload.Value) (bool, string) {
	switch op {
	case models.OperatorEquals:
		return payload.LooselyEqual(field, expected), ""
	case models.OperatorNotEquals:
		return !payload.LooselyEqual(field, expected), ""
	case models.OperatorGreaterThan,
		models.OperatorGreaterThanOrEqual,
		models.OperatorLessThan,
		models.OperatorLessThanOrEqual:
		return compareNumbers(op, field, expected)
	case models.OperatorContains:
		return contains(field, expected), ""
	case models.OperatorNotContains:
		return !contains(field, expected), ""
	case models.OperatorChangedFrom, models.OperatorChangedTo:
		previous, current, ok := changeState(field)
		if !ok {
			return false, ReasonMissingChange
		}

		if payload.LooselyEqual(previous, current) {
			return false, ""
		}

		if op == models.OperatorChangedFrom {
			return payload.LooselyEqual(previous, expected), ""
		}

		return payload.LooselyEqual(current, expected), ""
	default:
		return false, ReasonUnknownOperator
	}
}

func compareNumbers(op models.WorkflowConditionOperator, field, expected payload.Value) (bool, string) {
	actual, ok := field.Number()
	if !ok {
		return false, ReasonNonNumericField
	}

	// Already validated by the caller.
	want, _ := expected.Number()

	switch op {
	case models.OperatorGreaterThan:
		return actual > want, ""
	case models.OperatorGreaterThanOrEqual:
		return actual >= want, ""
	case models.OperatorLessThan:
		return actual < want, ""
	default:
		return actual <= want, ""
	}
}

// contains is a substring test on string-coerced operands. Arrays match when
// any element loosely equals the expected value.
func contains(field, expected payload.Value) bool {
	if field.Kind() == payload.KindArray {
		for _, item := range field.Items() {
			if payload.LooselyEqual(item, expected) {
				return true
			}
		}

		return false
	}

	return strings.Contains(field.Text(), expected.Text())
}

func changeState(field payload.Value) (payload.Value, payload.Value, bool) {
	if !field.IsObject() || !field.Has(PreviousKey) || !field.Has(CurrentKey) {
		return payload.Absent(), payload.Absent(), false
	}

	return field.Get(PreviousKey), field.Get(CurrentKey), true
}
