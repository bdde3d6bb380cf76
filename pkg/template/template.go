// Package template resolves {path} placeholders in action parameters
// against an event payload.
package template

import (
	"regexp"
	"strings"

	"github.com/dukex/fleetflow/pkg/payload"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_][A-Za-z0-9_.]*)\}`)

// NeedsTemplating reports whether input contains at least one placeholder.
func NeedsTemplating(input string) bool {
	return strings.ContainsRune(input, '{') && placeholderPattern.MatchString(input)
}

// Interpolate replaces every {path} in input with the payload value at path.
// Placeholders whose path does not resolve are left verbatim.
func Interpolate(input string, data payload.Value) string {
	if !NeedsTemplating(input) {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		path := match[1 : len(match)-1]

		value := data.Lookup(path)
		if value.IsAbsent() {
			return match
		}

		return value.Text()
	})
}

// Unresolved returns the placeholder paths in input that data cannot resolve.
func Unresolved(input string, data payload.Value) []string {
	var paths []string

	for _, m := range placeholderPattern.FindAllStringSubmatch(input, -1) {
		if data.Lookup(m[1]).IsAbsent() {
			paths = append(paths, m[1])
		}
	}

	return paths
}

// ResolveParameters returns a copy of params with placeholders in every
// string value resolved, descending into nested maps and slices. Non-string
// values are copied unchanged.
func ResolveParameters(params map[string]any, data payload.Value) map[string]any {
	if params == nil {
		return map[string]any{}
	}

	resolved := make(map[string]any, len(params))
	for key, value := range params {
		resolved[key] = resolveValue(value, data)
	}

	return resolved
}

func resolveValue(value any, data payload.Value) any {
	switch v := value.(type) {
	case string:
		return Interpolate(v, data)
	case map[string]any:
		return ResolveParameters(v, data)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = resolveValue(item, data)
		}

		return out
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = Interpolate(item, data)
		}

		return out
	default:
		return value
	}
}
