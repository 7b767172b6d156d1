// Package configs provides the global Configuration type for rdecheck.
package configs

import (
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/rdecheck/rdecheck/api"
	"github.com/rdecheck/rdecheck/api/v1beta1"
	"github.com/rdecheck/rdecheck/pkg/csvfile"
	"github.com/rdecheck/rdecheck/pkg/detect"
	"github.com/rdecheck/rdecheck/pkg/report"
	"github.com/rdecheck/rdecheck/pkg/yaml"
)

// SchemaURL is the $id of the configuration JSON schema.
const SchemaURL = "https://rdecheck.dev/schemas/configs.v1beta1.json"

const (
	DefaultDelimiter = ","
	DefaultOutput    = string(report.FormatText)
)

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	// ValidKinds contains the valid kind values for global configurations.
	ValidKinds = []string{"Configuration"}

	schemaJSON = yaml.NewSchemaGenerator(&Config{}, SchemaURL).MustGenerate()

	// DefaultValidator validates global configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator(SchemaURL, schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the global rdecheck configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	v1beta1.TypeMeta `json:",inline"`

	// Schema is the path to the rule table.
	Schema string `json:"schema,omitempty" jsonschema:"title=Rule Table Path"`
	// DefaultKind is the file kind for file-specs without one.
	DefaultKind string `json:"defaultKind,omitempty" jsonschema:"title=Default File Kind"`
	// Delimiter separates cells: a single character, or "tab".
	Delimiter string `json:"delimiter,omitempty" jsonschema:"title=Cell Delimiter,minLength=1"`
	// Output is the report format.
	Output string `json:"output,omitempty" jsonschema:"title=Output Format,enum=text,enum=json,enum=yaml"`
	// Detect lists the rules used to pick file kinds, in priority order.
	Detect []*detect.Rule `json:"detect,omitempty" jsonschema:"title=Detection Rules"`
	// Jobs is the number of files processed concurrently. Zero uses all CPUs.
	Jobs int `json:"jobs,omitempty" jsonschema:"title=Jobs,minimum=0"`
}

// New creates a new global [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "Configuration",
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes empty fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}

	if c.Output == "" {
		c.Output = DefaultOutput
	}

	if c.Detect == nil {
		c.Detect = DefaultDetect()
	}
}

// DefaultDetect returns the detection rules for the built-in file kinds.
func DefaultDetect() []*detect.Rule {
	return []*detect.Rule{
		{Kind: "f2", Match: `rows.exists(r, cell(r, 0) == "Parameter")`},
		{Kind: "f1", Match: `rows.size() > 0 && cell(rows[0], 0) == "TEST ID"`},
	}
}

// Validate validates the configuration values and compiles the detection
// rules.
func (c *Config) Validate() error {
	err := c.Check(ValidKinds...)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	_, err = csvfile.ParseDelimiter(c.Delimiter)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	_, err = report.ParseFormat(c.Output)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if c.Jobs < 0 {
		return fmt.Errorf("validate config: jobs must not be negative, got %d", c.Jobs)
	}

	_, err = c.Detector()
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}

// Detector compiles the detection rules into a [detect.Detector].
func (c *Config) Detector() (*detect.Detector, error) {
	d, err := detect.NewDetector(c.Detect...)
	if err != nil {
		return nil, fmt.Errorf("compile detection rules: %w", err)
	}

	return d, nil
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Write writes the config to the specified path if it doesn't already exist.
func (c Config) Write(path string) error {
	b, err := c.MarshalYAML()
	if err != nil {
		return err
	}

	err = api.WriteIfNotExists(path, b)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// JSONSchema returns the JSON schema for the configuration.
func JSONSchema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// DefaultYAML returns the embedded default config.yaml.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultConfigYAML...)
}

// WriteDefault writes the embedded default config.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// GetPath returns the path to the global configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
