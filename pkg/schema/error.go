package schema

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-yaml"
)

// SchemaError reports a malformed rule table. Path locates the offending node
// in the document, e.g. `$.file_kinds.f1.lines.2[1]._int`.
type SchemaError struct {
	Err  error
	Path string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// YAMLPath returns Path as a [yaml.Path], or nil if it cannot be parsed.
func (e *SchemaError) YAMLPath() *yaml.Path {
	p, err := yaml.PathString(e.Path)
	if err != nil {
		return nil
	}

	return p
}

var plainKey = regexp.MustCompile(`^[\w-]+$`)

// docPath is a YAML path under construction. It is a value type, so every
// child path is independent of its parent.
type docPath string

const rootPath docPath = "$"

func (p docPath) child(key string) docPath {
	if plainKey.MatchString(key) {
		return p + "." + docPath(key)
	}

	return p + ".'" + docPath(key) + "'"
}

func (p docPath) index(i int) docPath {
	return p + "[" + docPath(strconv.Itoa(i)) + "]"
}

func (p docPath) errorf(format string, args ...any) *SchemaError {
	return &SchemaError{Path: string(p), Err: fmt.Errorf(format, args...)}
}

func (p docPath) wrap(err error) *SchemaError {
	return &SchemaError{Path: string(p), Err: err}
}
