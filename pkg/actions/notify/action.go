// Package notify implements the send_notification action by publishing a
// notification request for the delivery service.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/fleetflow/pkg/actions"
	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/events"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
)

var ErrUnsupportedChannel = errors.New("unsupported notification channel")

// Channels lists the delivery channels a notification may target.
var Channels = []string{"email", "sms", "push", "webhook"}

func NewActionFactory(publisher eventbus.EventPublisher) *ActionFactory {
	return &ActionFactory{publisher: publisher}
}

type ActionFactory struct {
	publisher eventbus.EventPublisher
}

func (*ActionFactory) ID() string {
	return string(models.ActionSendNotification)
}

func (f *ActionFactory) Create(_ map[string]any, _ *slog.Logger) (protocol.Action, error) {
	return NewAction(f.publisher), nil
}

type Action struct {
	publisher eventbus.EventPublisher
}

func NewAction(publisher eventbus.EventPublisher) *Action {
	return &Action{publisher: publisher}
}

func (*Action) Type() models.WorkflowActionType {
	return models.ActionSendNotification
}

func (a *Action) Execute(ctx context.Context, params map[string]any, event models.Event, logger *slog.Logger) (map[string]any, error) {
	channel := strings.ToLower(actions.StringParam(params, "channel"))
	if !slices.Contains(Channels, channel) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChannel, channel)
	}

	request := &events.NotificationRequested{
		BaseEvent: events.NewBaseEvent(events.NotificationRequestedEvent, event.Scope),
		EventID:   event.ID,
		Channel:   channel,
		Recipient: actions.StringParam(params, "recipient"),
		Subject:   actions.StringParam(params, "subject"),
		Message:   actions.StringParam(params, "message"),
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	if err := a.publisher.Publish(ctx, request.Recipient, request); err != nil {
		return nil, fmt.Errorf("failed to publish notification request: %w", err)
	}

	logger.DebugContext(ctx, "Notification requested", "notification_id", request.ID, "channel", channel)

	return map[string]any{
		"notification_id": request.ID,
		"channel":         channel,
		"recipient":       request.Recipient,
	}, nil
}
