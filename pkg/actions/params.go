// Package actions holds helpers shared by the built-in action executors.
package actions

import (
	"fmt"
	"strings"

	"github.com/dukex/fleetflow/pkg/models"
)

// StringParam returns params[key] rendered as a trimmed string. Missing and
// nil values yield "".
func StringParam(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// EntityID resolves the identifier of entity from the event payload, looking
// at "<entity>.id" and then "<entity>_id". It returns "" when neither holds a
// scalar value.
func EntityID(event models.Event, entity string) string {
	if entity == "" {
		return ""
	}

	for _, path := range []string{entity + ".id", entity + "_id"} {
		value := event.Payload.Lookup(path)
		if value.IsScalar() {
			if id := strings.TrimSpace(value.Text()); id != "" {
				return id
			}
		}
	}

	return ""
}
