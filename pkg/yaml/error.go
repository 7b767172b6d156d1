package yaml

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/printer"
	"github.com/goccy/go-yaml/token"
)

// DefaultSourceLines is the number of lines shown on each side of an error.
const DefaultSourceLines = 4

func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

// PathError is implemented by errors that know where in a YAML document
// they occurred.
type PathError interface {
	error
	YAMLPath() *yaml.Path
}

// Annotator turns errors that point into one YAML document into [*Error]s
// carrying that document, so they print with a source excerpt.
type Annotator struct {
	opts []ErrorOpt
}

// NewAnnotator creates an [Annotator] for the document in source. Errors
// show [DefaultSourceLines] of context unless opts say otherwise.
func NewAnnotator(source []byte, opts ...ErrorOpt) *Annotator {
	return &Annotator{
		opts: slices.Concat([]ErrorOpt{WithSource(source), WithSourceLines(DefaultSourceLines)}, opts),
	}
}

// Annotate returns err as an [*Error] when it is one already, or when it
// carries a [yaml.Path] via [PathError]. Other errors are returned as is.
func (a *Annotator) Annotate(err error, opts ...ErrorOpt) error {
	if err == nil {
		return nil
	}

	var yamlErr *Error
	if !errors.As(err, &yamlErr) {
		var pe PathError
		if !errors.As(err, &pe) || pe.YAMLPath() == nil {
			return err
		}

		yamlErr = NewError(err, WithPath(pe.YAMLPath()))
	}

	for _, opt := range slices.Concat(a.opts, opts) {
		opt(yamlErr)
	}

	return yamlErr
}

// Error is an error located in a YAML document, either by token or by path.
type Error struct {
	Err    error
	Path   *yaml.Path
	Token  *token.Token
	Source []byte
	// SourceLines is the context shown on each side of the error line.
	SourceLines int
	Color       bool
}

func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{Err: err, SourceLines: DefaultSourceLines}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type ErrorOpt func(e *Error)

func WithSourceLines(lines int) ErrorOpt {
	return func(e *Error) { e.SourceLines = lines }
}

func WithPath(path *yaml.Path) ErrorOpt {
	return func(e *Error) { e.Path = path }
}

func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) { e.Token = tk }
}

func WithSource(source []byte) ErrorOpt {
	return func(e *Error) { e.Source = source }
}

// WithColor enables ANSI colors in the annotated source.
func WithColor(enabled bool) ErrorOpt {
	return func(e *Error) { e.Color = enabled }
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) Error() string {
	switch {
	case e.Err == nil:
		return ""
	case e.Path == nil && e.Token == nil:
		return e.Err.Error()
	}

	tk := e.Token
	if tk == nil && len(e.Source) > 0 {
		var err error

		tk, err = locate(e.Source, e.Path)
		if err != nil {
			slog.Debug("could not locate error in source",
				slog.String("path", e.Path.String()),
				slog.Any("error", err),
			)
		}
	}

	if tk == nil {
		return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
	}

	var pp printer.Printer

	src := excerpt(pp.PrintErrorToken(tk, e.Color), tk.Position.Line, e.SourceLines)

	return fmt.Sprintf("[%d:%d] %v:\n%s", tk.Position.Line, tk.Position.Column, e.Err, src)
}

// excerpt drops numbered lines further than n lines away from line in output
// produced by [printer.Printer.PrintErrorToken].
func excerpt(src string, line, n int) string {
	if n <= 0 {
		return src
	}

	var kept []string

	for l := range strings.SplitSeq(src, "\n") {
		var num int

		_, err := fmt.Sscanf(strings.TrimLeft(strings.TrimSpace(l), ">"), "%d |", &num)
		if err == nil && (num < line-n || num > line+n) {
			continue
		}

		kept = append(kept, l)
	}

	return strings.Join(kept, "\n")
}

// locate finds the token for path in source. For mapping entries it returns
// the key token, otherwise the value token.
func locate(source []byte, path *yaml.Path) (*token.Token, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	node, err := path.FilterFile(file)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", path.String(), err)
	}

	if key := keyToken(file, path.String()); key != nil {
		return key, nil
	}

	return node.GetToken(), nil
}

func keyToken(file *ast.File, path string) *token.Token {
	dot := strings.LastIndex(path, ".")
	if dot == -1 || dot < strings.LastIndex(path, "[") {
		// Root or sequence element.
		return nil
	}

	parent, err := yaml.PathString(path[:dot])
	if err != nil {
		return nil
	}

	node, err := parent.FilterFile(file)
	if err != nil {
		return nil
	}

	mapping, ok := node.(*ast.MappingNode)
	if !ok {
		return nil
	}

	name := strings.Trim(path[dot+1:], "'")
	for _, kv := range mapping.Values {
		if tk := kv.Key.GetToken(); tk.Value == name {
			return tk
		}
	}

	return nil
}
