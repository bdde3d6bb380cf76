package models

// WorkflowActionType identifies a dispatchable action. Presentation labels
// live in pkg/labels; this type only carries keys and dispatch metadata.
type WorkflowActionType string

const (
	ActionLogAlert         WorkflowActionType = "log_alert"
	ActionCreateAlert      WorkflowActionType = "create_alert"
	ActionSendNotification WorkflowActionType = "send_notification"
	ActionLockVehicle      WorkflowActionType = "lock_vehicle"
	ActionUnlockVehicle    WorkflowActionType = "unlock_vehicle"
)

// AnyModel marks an action type that applies to every model type.
const AnyModel = "*"

type actionTypeDefinition struct {
	modelTypes         []string
	requiredParameters []string
}

var actionTypeDefinitions = map[WorkflowActionType]actionTypeDefinition{
	ActionLogAlert: {
		modelTypes:         []string{AnyModel},
		requiredParameters: []string{"message", "level"},
	},
	ActionCreateAlert: {
		modelTypes:         []string{AnyModel},
		requiredParameters: []string{"title", "content", "severity"},
	},
	ActionSendNotification: {
		modelTypes:         []string{AnyModel},
		requiredParameters: []string{"channel", "recipient", "message"},
	},
	ActionLockVehicle: {
		modelTypes: []string{EntityVehicle},
	},
	ActionUnlockVehicle: {
		modelTypes: []string{EntityVehicle},
	},
}

// ActionTypes returns every known action type in declaration order.
func ActionTypes() []WorkflowActionType {
	return []WorkflowActionType{
		ActionLogAlert,
		ActionCreateAlert,
		ActionSendNotification,
		ActionLockVehicle,
		ActionUnlockVehicle,
	}
}

// Valid reports whether t is a known action type.
func (t WorkflowActionType) Valid() bool {
	_, ok := actionTypeDefinitions[t]

	return ok
}

// ModelTypes returns the model types the action applies to.
func (t WorkflowActionType) ModelTypes() []string {
	return append([]string(nil), actionTypeDefinitions[t].modelTypes...)
}

// AppliesTo reports whether the action can run for events from modelType.
func (t WorkflowActionType) AppliesTo(modelType string) bool {
	for _, m := range actionTypeDefinitions[t].modelTypes {
		if m == AnyModel || m == modelType {
			return true
		}
	}

	return false
}

// RequiredParameters returns the parameter keys the action cannot run without.
func (t WorkflowActionType) RequiredParameters() []string {
	return append([]string(nil), actionTypeDefinitions[t].requiredParameters...)
}

// WorkflowAction is one configured action instance.
type WorkflowAction struct {
	ID         string             `json:"id"`
	Type       WorkflowActionType `json:"action_type"          validate:"required"`
	Order      int                `json:"order"`
	Parameters map[string]any     `json:"parameters"`
	Critical   bool               `json:"critical,omitempty"`
}
