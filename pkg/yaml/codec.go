package yaml

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Encoder writes YAML with two-space indentation and indented sequences.
type Encoder struct {
	*yaml.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true))}
}

// Decoder reads YAML documents, reporting syntax errors as [*Error]s that
// point at the offending token. Duplicate mapping keys are rejected.
type Decoder struct {
	d *yaml.Decoder
}

func NewDecoder(r io.Reader, opts ...yaml.DecodeOption) *Decoder {
	return &Decoder{d: yaml.NewDecoder(r, opts...)}
}

// NewOrderedDecoder creates a [Decoder] that decodes untyped mappings into
// [yaml.MapSlice], keeping declaration order.
func NewOrderedDecoder(r io.Reader) *Decoder {
	return NewDecoder(r, yaml.UseOrderedMap())
}

func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return NewError(errors.New(yamlErr.GetMessage()), WithToken(yamlErr.GetToken()))
	}

	return err //nolint:wrapcheck // Only syntax errors are converted.
}
