package yaml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates data against a JSON schema.
// Uses [github.com/santhosh-tekuri/jsonschema/v6].
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new [Validator] with the provided JSON schema data.
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	schema, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	err = compiler.AddResource(url, schema)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	jss, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: jss}, nil
}

func MustNewValidator(url string, schemaData []byte) *Validator {
	v, err := NewValidator(url, schemaData)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate validates the given data against the schema. The data may be any
// value produced by a [Decoder], including [yaml.MapSlice] trees and mappings
// with non-string keys.
//
// It returns an [*Error] carrying the [yaml.Path] of the offending node, so
// that it can be annotated with [Annotator].
func (s *Validator) Validate(data any) error {
	instance, err := ToJSON(data)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	err = s.schema.Validate(instance)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	location := findMostSpecificLocation(validationErr)

	return &Error{
		Err:  validationErr,
		Path: buildPathFromLocation(instance, location),
	}
}

// ToJSON converts a decoded YAML value into the generic form produced by
// [jsonschema.UnmarshalJSON]: string-keyed maps, slices, and [json.Number]s.
func ToJSON(v any) (any, error) {
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}

	out, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}

	return out, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(t))
		for _, item := range t {
			m[fmt.Sprint(item.Key)] = normalize(item.Value)
		}

		return m

	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}

		return m

	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}

		return m

	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = normalize(val)
		}

		return s
	}

	return v
}

// findMostSpecificLocation recursively searches through all causes to find the
// one with the longest InstanceLocation.
func findMostSpecificLocation(err *jsonschema.ValidationError) []string {
	longest := err.InstanceLocation

	for _, cause := range err.Causes {
		candidateLocation := findMostSpecificLocation(cause)
		if len(candidateLocation) > len(longest) {
			longest = candidateLocation
		}
	}

	return longest
}

// buildPathFromLocation converts an InstanceLocation slice to a [yaml.Path].
// The instance is walked alongside the location so that numeric mapping keys
// are not mistaken for sequence indexes.
func buildPathFromLocation(instance any, location []string) *yaml.Path {
	current := NewPathBuilder().Root()
	node := instance

	for _, part := range location {
		switch n := node.(type) {
		case []any:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 || index >= len(n) {
				return current.Build()
			}

			current = current.Index(uint(index))
			node = n[index]

		case map[string]any:
			current = current.Child(part)
			node = n[part]

		default:
			return current.Build()
		}
	}

	return current.Build()
}
