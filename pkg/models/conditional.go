package models

// WorkflowConditionOperator is the comparison applied by a condition.
type WorkflowConditionOperator string

const (
	OperatorEquals             WorkflowConditionOperator = "equals"
	OperatorNotEquals          WorkflowConditionOperator = "not_equals"
	OperatorGreaterThan        WorkflowConditionOperator = "greater_than"
	OperatorGreaterThanOrEqual WorkflowConditionOperator = "greater_than_or_equal"
	OperatorLessThan           WorkflowConditionOperator = "less_than"
	OperatorLessThanOrEqual    WorkflowConditionOperator = "less_than_or_equal"
	OperatorContains           WorkflowConditionOperator = "contains"
	OperatorNotContains        WorkflowConditionOperator = "not_contains"
	OperatorIsNull             WorkflowConditionOperator = "is_null"
	OperatorIsNotNull          WorkflowConditionOperator = "is_not_null"
	OperatorIsTrue             WorkflowConditionOperator = "is_true"
	OperatorIsFalse            WorkflowConditionOperator = "is_false"
	OperatorChanged            WorkflowConditionOperator = "changed"
	OperatorChangedFrom        WorkflowConditionOperator = "changed_from"
	OperatorChangedTo          WorkflowConditionOperator = "changed_to"
)

// ValueType is the expected type of a condition's comparison operand.
type ValueType string

const (
	ValueTypeString ValueType = "string"
	ValueTypeNumber ValueType = "number"
	ValueTypeMixed  ValueType = "mixed"
)

type operatorDefinition struct {
	requiresValue bool
	valueType     ValueType
}

var operatorDefinitions = map[WorkflowConditionOperator]operatorDefinition{
	OperatorEquals:             {requiresValue: true, valueType: ValueTypeMixed},
	OperatorNotEquals:          {requiresValue: true, valueType: ValueTypeMixed},
	OperatorGreaterThan:        {requiresValue: true, valueType: ValueTypeNumber},
	OperatorGreaterThanOrEqual: {requiresValue: true, valueType: ValueTypeNumber},
	OperatorLessThan:           {requiresValue: true, valueType: ValueTypeNumber},
	OperatorLessThanOrEqual:    {requiresValue: true, valueType: ValueTypeNumber},
	OperatorContains:           {requiresValue: true, valueType: ValueTypeString},
	OperatorNotContains:        {requiresValue: true, valueType: ValueTypeString},
	OperatorIsNull:             {requiresValue: false, valueType: ValueTypeMixed},
	OperatorIsNotNull:          {requiresValue: false, valueType: ValueTypeMixed},
	OperatorIsTrue:             {requiresValue: false, valueType: ValueTypeMixed},
	OperatorIsFalse:            {requiresValue: false, valueType: ValueTypeMixed},
	OperatorChanged:            {requiresValue: false, valueType: ValueTypeMixed},
	OperatorChangedFrom:        {requiresValue: true, valueType: ValueTypeMixed},
	OperatorChangedTo:          {requiresValue: true, valueType: ValueTypeMixed},
}

// ConditionOperators returns every operator in declaration order.
func ConditionOperators() []WorkflowConditionOperator {
	return []WorkflowConditionOperator{
		OperatorEquals, OperatorNotEquals,
		OperatorGreaterThan, OperatorGreaterThanOrEqual,
		OperatorLessThan, OperatorLessThanOrEqual,
		OperatorContains, OperatorNotContains,
		OperatorIsNull, OperatorIsNotNull,
		OperatorIsTrue, OperatorIsFalse,
		OperatorChanged, OperatorChangedFrom, OperatorChangedTo,
	}
}

// Valid reports whether o is a known operator.
func (o WorkflowConditionOperator) Valid() bool {
	_, ok := operatorDefinitions[o]

	return ok
}

// RequiresValue reports whether the operator reads the condition's Value.
func (o WorkflowConditionOperator) RequiresValue() bool {
	return operatorDefinitions[o].requiresValue
}

// ValueType returns the expected operand type. Unknown operators are mixed.
func (o WorkflowConditionOperator) ValueType() ValueType {
	def, ok := operatorDefinitions[o]
	if !ok {
		return ValueTypeMixed
	}

	return def.valueType
}

// LogicalOperator describes how a condition combines with the running result
// of the conditions before it.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Valid reports whether l is AND, OR or empty (which means AND).
func (l LogicalOperator) Valid() bool {
	return l == "" || l == LogicalAnd || l == LogicalOr
}

// WorkflowCondition is a single boolean test against the event payload.
type WorkflowCondition struct {
	ID              string                    `json:"id,omitempty"`
	Field           string                    `json:"field"                      validate:"required"`
	Operator        WorkflowConditionOperator `json:"operator"                   validate:"required"`
	Value           any                       `json:"value,omitempty"`
	LogicalOperator LogicalOperator           `json:"logical_operator,omitempty"`
}

// ConditionResult is the itemized outcome of one condition in an execution.
type ConditionResult struct {
	Index           int                       `json:"index"`
	Field           string                    `json:"field"`
	Operator        WorkflowConditionOperator `json:"operator"`
	LogicalOperator LogicalOperator           `json:"logical_operator"`
	Result          bool                      `json:"result"`
	Reason          string                    `json:"reason,omitempty"`
}
