package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	_ "embed"

	"github.com/rdecheck/rdecheck/api"
	"github.com/rdecheck/rdecheck/pkg/rule"
	"github.com/rdecheck/rdecheck/pkg/yaml"
)

// SchemaURL is the $id of the rule-table JSON schema.
const SchemaURL = "https://rdecheck.dev/schemas/ruletable.v1beta1.json"

var (
	//go:embed schema.v1beta1.json
	jsonSchema []byte

	//go:embed files-schema.yaml
	defaultTable []byte

	// DefaultValidator validates rule tables against the embedded JSON schema.
	DefaultValidator = yaml.MustNewValidator(SchemaURL, jsonSchema)
)

// JSONSchema returns the JSON schema for rule tables.
func JSONSchema() []byte {
	return bytes.Clone(jsonSchema)
}

// DefaultTable returns the embedded default rule table.
func DefaultTable() []byte {
	return bytes.Clone(defaultTable)
}

// Default loads the embedded default rule table.
func Default(reg *rule.Registry) (*Schema, error) {
	return Load(defaultTable, reg)
}

// LoadFile reads and loads a rule table from path.
func LoadFile(path string, reg *rule.Registry) (*Schema, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}

	s, err := Load(data, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("loaded rule table",
		slog.String("path", path),
		slog.Int("kinds", len(s.FileKinds)),
	)

	return s, nil
}

// Load decodes data, validates it against the rule-table JSON schema and
// compiles it. Errors locating a node in data are annotated with its source.
func Load(data []byte, reg *rule.Registry) (*Schema, error) {
	ann := yaml.NewAnnotator(data)

	var doc any

	err := yaml.NewOrderedDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ann.Annotate(err)
	}
	if doc == nil {
		return nil, rootPath.errorf("empty rule table")
	}

	err = DefaultValidator.Validate(doc)
	if err != nil {
		var yamlErr *yaml.Error
		if errors.As(err, &yamlErr) && yamlErr.Path != nil {
			return nil, ann.Annotate(&SchemaError{Path: yamlErr.Path.String(), Err: yamlErr.Err})
		}

		return nil, fmt.Errorf("validate rule table: %w", err)
	}

	s, err := Compile(doc, reg)
	if err != nil {
		return nil, ann.Annotate(err)
	}

	return s, nil
}
