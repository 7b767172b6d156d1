// Package filespec parses `<kind>:<path>` command line arguments, reads the
// files they name, and resolves the file kind each one is validated against.
package filespec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/rdecheck/rdecheck/pkg/check"
	"github.com/rdecheck/rdecheck/pkg/csvfile"
	"github.com/rdecheck/rdecheck/pkg/detect"
	"github.com/rdecheck/rdecheck/pkg/schema"
)

// StdinPath is the path that reads from standard input.
const StdinPath = "-"

var (
	ErrEmptyPath     = errors.New("empty file path")
	ErrNoKind        = errors.New("no file kind")
	ErrMultipleStdin = errors.New("standard input given more than once")
)

var specPattern = regexp.MustCompile(`^(?:(\w+):)?(.*)$`)

// Spec is a parsed file-spec argument.
type Spec struct {
	// Kind is the explicit file kind, or empty when the argument had none.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Path string `json:"path"           yaml:"path"`
}

// Parse parses a `<kind>:<path>` argument. The kind prefix is optional.
func Parse(arg string) (Spec, error) {
	m := specPattern.FindStringSubmatch(arg)
	if m == nil || m[2] == "" {
		return Spec{}, fmt.Errorf("%w in %q", ErrEmptyPath, arg)
	}

	return Spec{Kind: m[1], Path: m[2]}, nil
}

// ParseAll parses each argument with [Parse].
func ParseAll(args []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(args))
	stdin := 0

	for _, arg := range args {
		s, err := Parse(arg)
		if err != nil {
			return nil, err
		}

		if s.Stdin() {
			stdin++
		}

		specs = append(specs, s)
	}

	if stdin > 1 {
		return nil, ErrMultipleStdin
	}

	return specs, nil
}

// Stdin reports whether the spec reads standard input.
func (s Spec) Stdin() bool {
	return s.Path == StdinPath
}

// Name returns the name used for the file in reports.
func (s Spec) Name() string {
	if s.Stdin() {
		return csvfile.StdinName
	}

	return s.Path
}

func (s Spec) String() string {
	if s.Kind == "" {
		return s.Path
	}

	return s.Kind + ":" + s.Path
}

// ReadAll reads the files named by specs, in parallel and bounded by jobs
// (the number of CPUs when jobs < 1). The returned files are in spec order.
func ReadAll(ctx context.Context, specs []Spec, r *csvfile.Reader, stdin io.Reader, jobs int) ([]*check.ParsedFile, error) {
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}

	files := make([]*check.ParsedFile, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, s := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err //nolint:wrapcheck // Context errors are returned as-is.
			}

			var (
				f   *check.ParsedFile
				err error
			)
			if s.Stdin() {
				f, err = r.Read(s.Name(), stdin)
			} else {
				f, err = r.ReadFile(s.Path)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}

			slog.DebugContext(ctx, "read file",
				slog.String("file", f.Name),
				slog.String("size", humanize.Bytes(uint64(max(f.Size, 0)))),
				slog.Int("lines", len(f.Lines)),
			)

			files[i] = f

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // Errors are already wrapped.
	}

	return files, nil
}

// Resolver picks the file kind for each file-spec.
type Resolver struct {
	schema      *schema.Schema
	detector    *detect.Detector
	defaultKind string
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*Resolver)

// WithDetector sets the detector used for specs without an explicit kind.
func WithDetector(d *detect.Detector) ResolverOption {
	return func(r *Resolver) {
		r.detector = d
	}
}

// WithDefaultKind sets the kind used when neither the spec nor the detector
// provide one.
func WithDefaultKind(kind string) ResolverOption {
	return func(r *Resolver) {
		r.defaultKind = kind
	}
}

// NewResolver creates a new [Resolver] over the given schema.
func NewResolver(s *schema.Schema, opts ...ResolverOption) *Resolver {
	r := &Resolver{schema: s}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the file kind for a spec and its parsed file. An explicit
// kind wins over detection, which wins over the default kind.
func (r *Resolver) Resolve(s Spec, f *check.ParsedFile) (*schema.FileKindSpec, error) {
	id, source := s.Kind, "explicit"

	if id == "" && r.detector != nil {
		if kind, ok := r.detector.Detect(s.Path, f.Lines); ok {
			id, source = kind, "detected"
		}
	}

	if id == "" && r.defaultKind != "" {
		id, source = r.defaultKind, "default"
	}

	if id == "" {
		return nil, fmt.Errorf("%s: %w, use <kind>:%s or set a default kind", s, ErrNoKind, s.Path)
	}

	kind, err := r.schema.Kind(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %s kind: %w", s, source, err)
	}

	slog.Debug("resolved file kind",
		slog.String("file", s.Name()),
		slog.String("kind", kind.ID),
		slog.String("source", source),
	)

	return kind, nil
}

// Inputs reads the files named by specs and resolves their kinds.
func (r *Resolver) Inputs(ctx context.Context, specs []Spec, rd *csvfile.Reader, stdin io.Reader, jobs int) ([]check.Input, error) {
	files, err := ReadAll(ctx, specs, rd, stdin, jobs)
	if err != nil {
		return nil, err
	}

	inputs := make([]check.Input, 0, len(files))
	for i, f := range files {
		kind, err := r.Resolve(specs[i], f)
		if err != nil {
			return nil, err
		}

		inputs = append(inputs, check.Input{Kind: kind, File: f})
	}

	return inputs, nil
}
