// Package schema validates outgoing events against embedded JSON schemas
// before they are published.
package schema

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrUnknownEventType is returned for events without a registered schema.
var ErrUnknownEventType = errors.New("no schema for event type")

// ValidationError lists the schema violations of one event.
type ValidationError struct {
	EventType string
	Errors    []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event %s failed schema validation: %s", e.EventType, strings.Join(e.Errors, "; "))
}

// Validator holds compiled schemas keyed by event type.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles every embedded schema. The file name without extension is
// the event type it applies to.
func New() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}

	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(entries))}
	for _, entry := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, err
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		v.schemas[strings.TrimSuffix(entry.Name(), ".json")] = compiled
	}
	return v, nil
}

// MustNew is New for package-level initialization.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// EventTypes returns the registered event types.
func (v *Validator) EventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for t := range v.schemas {
		types = append(types, t)
	}
	return types
}

// Validate checks event against the schema named by its eventType field.
func (v *Validator) Validate(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return v.ValidateJSON(payload)
}

// ValidateJSON is Validate for an already encoded event.
func (v *Validator) ValidateJSON(payload []byte) error {
	var envelope struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	compiled, ok := v.schemas[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, envelope.EventType)
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("validate %s: %w", envelope.EventType, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{EventType: envelope.EventType}
	for _, re := range result.Errors() {
		verr.Errors = append(verr.Errors, re.String())
	}
	return verr
}
