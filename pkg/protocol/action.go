// Package protocol defines the contracts between the engine and pluggable components.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/fleetflow/pkg/models"
)

// Action executes one workflow action type. Parameters arrive with
// placeholders already resolved against the triggering event payload.
type Action interface {
	Type() models.WorkflowActionType
	Execute(ctx context.Context, params map[string]any, event models.Event, logger *slog.Logger) (map[string]any, error)
}

// ActionFactory builds an Action from deployment configuration. Plugins export
// a value implementing it under the symbol "Action".
type ActionFactory interface {
	Create(config map[string]any, logger *slog.Logger) (Action, error)
	ID() string
}
