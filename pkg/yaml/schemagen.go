package yaml

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator generates JSON schemas for Go types.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	v  any
	id string
}

// NewSchemaGenerator creates a new [SchemaGenerator] for the given value.
// The id is used as the schema's $id.
func NewSchemaGenerator(v any, id string) *SchemaGenerator {
	return &SchemaGenerator{v: v, id: id}
}

// Generate returns the indented JSON schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		Namer: func(t reflect.Type) string {
			return t.Name()
		},
	}

	jss := r.Reflect(g.v)
	if g.id != "" {
		jss.ID = jsonschema.ID(g.id)
	}

	b, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return b, nil
}

// MustGenerate is like [SchemaGenerator.Generate] but panics on error.
func (g *SchemaGenerator) MustGenerate() []byte {
	b, err := g.Generate()
	if err != nil {
		panic(err)
	}

	return b
}
