// Package config loads the YAML action configuration shared by the fleetflow binaries.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ActionsFile represents the structure of the actions.yaml file.
type ActionsFile struct {
	PluginsPath string                  `yaml:"plugins_path"`
	Actions     map[string]ActionConfig `yaml:"actions"`
}

// ActionConfig configures one action type, keyed by its factory ID.
type ActionConfig struct {
	Disabled bool           `yaml:"disabled"`
	Settings map[string]any `yaml:"settings"`
}

// LoadActionsFile reads path. An empty path yields an empty configuration
// in which every built-in action is enabled.
func LoadActionsFile(path string) (ActionsFile, error) {
	if path == "" {
		return ActionsFile{}, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return ActionsFile{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return ParseActionsFile(data)
}

// ParseActionsFile decodes an actions.yaml document.
func ParseActionsFile(data []byte) (ActionsFile, error) {
	var file ActionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ActionsFile{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return file, nil
}

// Action returns the configuration for id, or the zero value when absent.
func (f ActionsFile) Action(id string) ActionConfig {
	return f.Actions[id]
}
