package check

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rdecheck/rdecheck/pkg/schema"
)

var (
	// ErrValidationFailed is returned by [Report.Err] when any file failed.
	ErrValidationFailed = errors.New("validation failed")

	ErrInvalidInput = errors.New("invalid input")
)

// Input is one file to validate together with its file kind.
type Input struct {
	Kind *schema.FileKindSpec
	File *ParsedFile
}

// Failure is one failed check, flattened for reporting.
type Failure struct {
	File     string `json:"file"`
	Kind     string `json:"kind"`
	Section  string `json:"section,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual"`
	Cause    string `json:"cause"`
	Message  string `json:"message,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"` // 1-based; zero for line-level failures.
}

// Report aggregates the results of a batch of files.
type Report struct {
	Files    []FileResult `json:"files"`
	Failures []Failure    `json:"failures"`
	Total    int          `json:"total"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
}

// NewReport aggregates files, keeping their order.
func NewReport(files []FileResult) *Report {
	r := &Report{
		Files:    files,
		Total:    len(files),
		Failures: []Failure{},
	}

	for _, f := range files {
		if f.Pass {
			r.Passed++

			continue
		}

		r.Failed++
		r.Failures = append(r.Failures, f.Failures()...)
	}

	return r
}

// Err returns an error wrapping [ErrValidationFailed] if any file failed.
func (r *Report) Err() error {
	if r.Failed == 0 {
		return nil
	}

	return fmt.Errorf("%w: %d of %d files", ErrValidationFailed, r.Failed, r.Total)
}

// Failures flattens the file's failed checks, in line order.
func (f FileResult) Failures() []Failure {
	var out []Failure
	for _, l := range f.Lines {
		out = append(out, f.LineFailures(l)...)
	}

	return out
}

// LineFailures flattens one line of f into failures. A line-level cause
// yields a single failure, otherwise each failing cell yields one.
func (f FileResult) LineFailures(l LineResult) []Failure {
	if l.Pass {
		return nil
	}

	if l.Cause != "" {
		return []Failure{{
			File:    f.Name,
			Kind:    f.Kind,
			Section: l.Section,
			Line:    l.Number,
			Cause:   string(l.Cause),
			Message: l.Message,
		}}
	}

	var out []Failure

	for _, c := range l.Cells {
		if c.Pass {
			continue
		}

		fl := Failure{
			File:     f.Name,
			Kind:     f.Kind,
			Section:  l.Section,
			Line:     l.Number,
			Column:   c.Column,
			Expected: c.Expected,
			Actual:   c.Value,
			Cause:    string(c.Cause),
			Message:  c.Message,
		}
		if c.Rule != nil {
			fl.Rule = string(c.Rule.ID)
		}

		out = append(out, fl)
	}

	return out
}

// Option configures [ValidateMany].
type Option func(*options)

type options struct {
	jobs int
}

// WithJobs sets how many files are validated concurrently. Values below one
// use [runtime.NumCPU].
func WithJobs(n int) Option {
	return func(o *options) {
		o.jobs = n
	}
}

// ValidateMany validates every input and aggregates the results. Files are
// validated concurrently, but the report keeps input order.
func ValidateMany(ctx context.Context, inputs []Input, opts ...Option) (*Report, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.jobs < 1 {
		o.jobs = runtime.NumCPU()
	}

	for i, in := range inputs {
		if in.Kind == nil || in.File == nil {
			return nil, fmt.Errorf("%w: input %d has no kind or file", ErrInvalidInput, i)
		}
	}

	results := make([]FileResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)

	for i, in := range inputs {
		g.Go(func() error {
			err := ctx.Err()
			if err != nil {
				return err //nolint:wrapcheck // Context error.
			}

			results[i] = Validate(in.Kind, in.File)

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("validate files: %w", err)
	}

	return NewReport(results), nil
}
