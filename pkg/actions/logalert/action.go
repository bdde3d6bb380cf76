// Package logalert implements the log_alert action: a structured log entry
// written through the engine's logging sink.
package logalert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/fleetflow/pkg/actions"
	flog "github.com/dukex/fleetflow/pkg/log"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
)

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

type ActionFactory struct{}

func (*ActionFactory) ID() string {
	return string(models.ActionLogAlert)
}

func (f *ActionFactory) Create(_ map[string]any, _ *slog.Logger) (protocol.Action, error) {
	return NewAction(), nil
}

type Action struct{}

func NewAction() *Action {
	return &Action{}
}

func (*Action) Type() models.WorkflowActionType {
	return models.ActionLogAlert
}

// Execute writes message at level. Unknown levels are logged at info. The
// record goes straight to the logger's handler so sink failures are returned.
func (a *Action) Execute(ctx context.Context, params map[string]any, event models.Event, logger *slog.Logger) (map[string]any, error) {
	message := actions.StringParam(params, "message")
	level := flog.ParseLevel(actions.StringParam(params, "level"))

	handler := logger.Handler()

	output := map[string]any{
		"message": message,
		"level":   flog.LevelName(level),
	}

	if !handler.Enabled(ctx, level) {
		return output, nil
	}

	record := slog.NewRecord(time.Now(), level, message, 0)
	record.AddAttrs(
		slog.String("action_type", string(models.ActionLogAlert)),
		slog.String("event_type", string(event.Type)),
	)

	if event.ID != "" {
		record.AddAttrs(slog.String("event_id", event.ID))
	}

	if err := handler.Handle(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to write log alert: %w", err)
	}

	return output, nil
}
