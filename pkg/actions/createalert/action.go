// Package createalert implements the create_alert action.
package createalert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/fleetflow/pkg/actions"
	"github.com/dukex/fleetflow/pkg/alerts"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
)

func NewActionFactory(creator alerts.Creator) *ActionFactory {
	return &ActionFactory{creator: creator}
}

type ActionFactory struct {
	creator alerts.Creator
}

func (*ActionFactory) ID() string {
	return string(models.ActionCreateAlert)
}

func (f *ActionFactory) Create(_ map[string]any, _ *slog.Logger) (protocol.Action, error) {
	return NewAction(f.creator), nil
}

type Action struct {
	creator alerts.Creator
}

func NewAction(creator alerts.Creator) *Action {
	return &Action{creator: creator}
}

func (*Action) Type() models.WorkflowActionType {
	return models.ActionCreateAlert
}

// Execute asks the alert collaborator to create an alert. The entity the event
// originates from becomes the related entity when the payload identifies it.
func (a *Action) Execute(ctx context.Context, params map[string]any, event models.Event, logger *slog.Logger) (map[string]any, error) {
	severity := models.AlertSeverity(strings.ToLower(actions.StringParam(params, "severity")))
	if !severity.Valid() {
		return nil, fmt.Errorf("%w: %q", alerts.ErrInvalidSeverity, severity)
	}

	alert := alerts.NewAlert{
		Title:    actions.StringParam(params, "title"),
		Content:  actions.StringParam(params, "content"),
		Severity: severity,
		Scope:    event.Scope,
	}

	entity := event.Type.SourceEntity()
	if id := actions.EntityID(event, entity); id != "" {
		alert.RelatedEntity = &models.RelatedEntity{Type: entity, ID: id}
	}

	alertID, err := a.creator.CreateAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	logger.DebugContext(ctx, "Alert created by workflow action", "alert_id", alertID, "severity", severity)

	output := map[string]any{
		"alert_id": alertID,
		"severity": string(severity),
	}

	if alert.RelatedEntity != nil {
		output["related_entity_type"] = alert.RelatedEntity.Type
		output["related_entity_id"] = alert.RelatedEntity.ID
	}

	return output, nil
}
