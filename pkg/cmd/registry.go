// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dukex/fleetflow/pkg/actions/createalert"
	"github.com/dukex/fleetflow/pkg/actions/logalert"
	"github.com/dukex/fleetflow/pkg/actions/notify"
	"github.com/dukex/fleetflow/pkg/actions/vehiclecommand"
	"github.com/dukex/fleetflow/pkg/alerts"
	"github.com/dukex/fleetflow/pkg/config"
	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
	"github.com/dukex/fleetflow/pkg/registry"
)

// ActionDependencies are the collaborators the native actions act through.
type ActionDependencies struct {
	Alerts    alerts.Creator
	Publisher eventbus.EventPublisher
}

func nativeActionFactories(deps ActionDependencies) []protocol.ActionFactory {
	return []protocol.ActionFactory{
		logalert.NewActionFactory(),
		createalert.NewActionFactory(deps.Alerts),
		notify.NewActionFactory(deps.Publisher),
		vehiclecommand.NewActionFactory(models.ActionLockVehicle, deps.Publisher),
		vehiclecommand.NewActionFactory(models.ActionUnlockVehicle, deps.Publisher),
	}
}

func registerNativeActions(reg *registry.Registry, log *slog.Logger, deps ActionDependencies, cfg config.ActionsFile) error {
	for _, factory := range nativeActionFactories(deps) {
		actionConfig := cfg.Action(factory.ID())
		if actionConfig.Disabled {
			log.Info("Action disabled by configuration", "action_type", factory.ID())

			continue
		}

		action, err := factory.Create(actionConfig.Settings, log)
		if err != nil {
			return fmt.Errorf("failed to create action %s: %w", factory.ID(), err)
		}

		reg.RegisterAction(action)
	}

	return nil
}

// NewRegistry registers the native actions, then any plugins found under
// cfg.PluginsPath. Plugins replace native actions of the same type.
func NewRegistry(log *slog.Logger, deps ActionDependencies, cfg config.ActionsFile) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if err := registerNativeActions(reg, log, deps, cfg); err != nil {
		return nil, err
	}

	if cfg.PluginsPath != "" {
		if err := reg.LoadActionPlugins(cfg.PluginsPath, func(id string) map[string]any {
			return cfg.Action(id).Settings
		}); err != nil {
			return nil, fmt.Errorf("failed to load action plugins: %w", err)
		}
	}

	return reg, nil
}
