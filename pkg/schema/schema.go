// Package schema validates event payload shapes against the JSON Schema of
// the event's source entity. The engine itself never requires it.
package schema

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	ErrInvalidPayload   = errors.New("payload does not match schema")
	ErrUnknownEventType = errors.New("unknown event type")
)

// ValidationError lists every schema violation found in a payload.
type ValidationError struct {
	Entity     string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s payload does not match schema: %s", e.Entity, strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPayload
}

// Validator holds one compiled schema per source entity.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles the embedded entity schemas.
func NewValidator() (*Validator, error) {
	entities := []string{models.EntityVehicle, models.EntityDevice, models.EntityDriver, models.EntityAlert}

	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(entities))}

	for _, entity := range entities {
		data, err := schemaFiles.ReadFile("schemas/" + entity + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s schema: %w", entity, err)
		}

		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", entity, err)
		}

		v.schemas[entity] = compiled
	}

	return v, nil
}

// Schema returns the raw JSON Schema document for entity.
func Schema(entity string) ([]byte, error) {
	return schemaFiles.ReadFile("schemas/" + entity + ".json")
}

// Validate checks p against the schema of eventType's source entity.
func (v *Validator) Validate(eventType models.WorkflowEventType, p payload.Value) error {
	entity := eventType.SourceEntity()

	compiled, ok := v.schemas[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(p.Interface()))
	if err != nil {
		return fmt.Errorf("failed to validate %s payload: %w", entity, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return &ValidationError{Entity: entity, Violations: violations}
}
