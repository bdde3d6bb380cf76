// Package vehiclecommand implements lock_vehicle and unlock_vehicle. Commands
// are published for the telematics gateway; the engine does not wait for the
// device to acknowledge them.
package vehiclecommand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/fleetflow/pkg/actions"
	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/events"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
)

const (
	CommandLock   = "lock"
	CommandUnlock = "unlock"
)

var ErrUnsupportedActionType = errors.New("action type is not a vehicle command")

var commands = map[models.WorkflowActionType]string{
	models.ActionLockVehicle:   CommandLock,
	models.ActionUnlockVehicle: CommandUnlock,
}

type ActionFactory struct {
	actionType models.WorkflowActionType
	publisher  eventbus.EventPublisher
}

func NewActionFactory(actionType models.WorkflowActionType, publisher eventbus.EventPublisher) *ActionFactory {
	return &ActionFactory{actionType: actionType, publisher: publisher}
}

func (f *ActionFactory) ID() string {
	return string(f.actionType)
}

func (f *ActionFactory) Create(_ map[string]any, _ *slog.Logger) (protocol.Action, error) {
	action, err := NewAction(f.actionType, f.publisher)
	if err != nil {
		return nil, err
	}

	return action, nil
}

type Action struct {
	actionType models.WorkflowActionType
	command    string
	publisher  eventbus.EventPublisher
}

// NewAction returns the executor for a lock or unlock action type.
func NewAction(actionType models.WorkflowActionType, publisher eventbus.EventPublisher) (*Action, error) {
	command, ok := commands[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedActionType, actionType)
	}

	return &Action{actionType: actionType, command: command, publisher: publisher}, nil
}

func (a *Action) Type() models.WorkflowActionType {
	return a.actionType
}

// Execute targets the vehicle_id parameter when set and the event's vehicle
// otherwise.
func (a *Action) Execute(ctx context.Context, params map[string]any, event models.Event, logger *slog.Logger) (map[string]any, error) {
	vehicleID := actions.StringParam(params, "vehicle_id")
	if vehicleID == "" {
		vehicleID = actions.EntityID(event, models.EntityVehicle)
	}

	request := &events.VehicleCommandRequested{
		BaseEvent: events.NewBaseEvent(events.VehicleCommandRequestedEvent, event.Scope),
		EventID:   event.ID,
		VehicleID: vehicleID,
		Command:   a.command,
		Reason:    actions.StringParam(params, "reason"),
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	if err := a.publisher.Publish(ctx, vehicleID, request); err != nil {
		return nil, fmt.Errorf("failed to publish %s command: %w", a.command, err)
	}

	logger.InfoContext(ctx, "Vehicle command requested", "vehicle_id", vehicleID, "command", a.command)

	return map[string]any{
		"command_id": request.ID,
		"command":    a.command,
		"vehicle_id": vehicleID,
	}, nil
}
