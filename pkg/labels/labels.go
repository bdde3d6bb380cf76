// Package labels maps enumeration keys to presentation labels. The bundle is
// embedded and parsed once; lookups never fail and fall back to the key.
package labels

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed en.yaml
var english []byte

type Group string

const (
	EventTypes       Group = "event_types"
	Operators        Group = "operators"
	LogicalOperators Group = "logical_operators"
	ActionTypes      Group = "action_types"
	Severities       Group = "severities"
)

// Bundle is a parsed label set.
type Bundle map[Group]map[string]string

// Parse decodes a YAML label bundle.
func Parse(data []byte) (Bundle, error) {
	var bundle Bundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse label bundle: %w", err)
	}

	return bundle, nil
}

// Label returns the label for key in group, or key itself when missing.
func (b Bundle) Label(group Group, key string) string {
	if label, ok := b[group][key]; ok {
		return label
	}

	return key
}

var defaultBundle = sync.OnceValue(func() Bundle {
	bundle, err := Parse(english)
	if err != nil {
		panic(err)
	}

	return bundle
})

// Default returns the embedded English bundle.
func Default() Bundle {
	return defaultBundle()
}

// Label looks key up in the default bundle.
func Label(group Group, key string) string {
	return Default().Label(group, key)
}
