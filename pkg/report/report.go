// Package report renders a [check.Report] for humans (text) or machines
// (JSON, YAML).
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/rdecheck/rdecheck/pkg/check"
	"github.com/rdecheck/rdecheck/pkg/yaml"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// digestLen is the number of digest characters shown in text output.
const digestLen = 12

var ErrUnknownFormat = errors.New("unknown output format")

// Formats returns all supported output formats.
func Formats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}

	return "", fmt.Errorf("%w %q, must be one of: %s", ErrUnknownFormat, s, strings.Join(Formats(), ", "))
}

type styles struct {
	pass   lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
	cause  lipgloss.Style
	header lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		pass:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dim:    r.NewStyle().Faint(true),
		cause:  r.NewStyle().Foreground(lipgloss.Color("3")),
		header: r.NewStyle().Bold(true),
	}
}

// Renderer writes reports in one [Format].
type Renderer struct {
	w       io.Writer
	styles  styles
	format  Format
	verbose bool
}

// Option configures a [Renderer].
type Option func(*options)

type options struct {
	color   bool
	verbose bool
}

// WithColor enables ANSI styling of text output.
func WithColor(color bool) Option {
	return func(o *options) {
		o.color = color
	}
}

// WithVerbose lists every checked line in text output, not only failures.
func WithVerbose(verbose bool) Option {
	return func(o *options) {
		o.verbose = verbose
	}
}

// NewRenderer creates a new [Renderer] writing to w.
func NewRenderer(w io.Writer, format Format, opts ...Option) *Renderer {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	lr := lipgloss.NewRenderer(w)
	if o.color {
		lr.SetColorProfile(termenv.ANSI256)
	} else {
		lr.SetColorProfile(termenv.Ascii)
	}

	return &Renderer{
		w:       w,
		format:  format,
		verbose: o.verbose,
		styles:  newStyles(lr),
	}
}

// Render writes the report.
func (r *Renderer) Render(rep *check.Report) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("close yaml encoder: %w", err)
		}

		return nil

	case FormatText:
		return r.text(rep)
	}

	return fmt.Errorf("%w %q", ErrUnknownFormat, r.format)
}

func (r *Renderer) text(rep *check.Report) error {
	var b strings.Builder

	for _, f := range rep.Files {
		mark, status := r.styles.pass.Render("✓"), r.styles.pass.Render("OK")
		if !f.Pass {
			mark, status = r.styles.fail.Render("✗"), r.styles.fail.Render("FAILED")
		}

		meta := fmt.Sprintf("(%s, %s", f.Kind, humanize.Bytes(uint64(max(f.Size, 0))))
		if len(f.Digest) >= digestLen {
			meta += ", blake3:" + f.Digest[:digestLen]
		}
		meta += ")"

		fmt.Fprintf(&b, "%s %s %s %s\n", mark, r.styles.header.Render(f.Name), r.styles.dim.Render(meta), status)

		for _, l := range f.Lines {
			if l.Pass && r.verbose {
				fmt.Fprintf(&b, "    %s\n", r.styles.dim.Render(lineLabel(l.Number, 0, l.Section)+": ok"))
			}

			for _, fl := range f.LineFailures(l) {
				fmt.Fprintf(&b, "    %s\n", r.failure(fl))
			}
		}
	}

	summary := fmt.Sprintf("%s checked: %d passed, %d failed",
		plural(rep.Total, "file"), rep.Passed, rep.Failed)
	if rep.Failed > 0 {
		summary += fmt.Sprintf(" (%s)", plural(len(rep.Failures), "failure"))
		b.WriteString(r.styles.fail.Render(summary))
	} else {
		b.WriteString(r.styles.pass.Render(summary))
	}
	b.WriteString("\n")

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (r *Renderer) failure(f check.Failure) string {
	var b strings.Builder

	b.WriteString(lineLabel(f.Line, f.Column, f.Section))
	b.WriteString(": ")
	b.WriteString(r.styles.cause.Render(f.Cause))

	if f.Message != "" && f.Message != f.Cause {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}

	var details []string
	if f.Rule != "" {
		details = append(details, "rule "+f.Rule)
	}
	if f.Expected != "" {
		details = append(details, "expected "+f.Expected)
	}
	if len(details) > 0 {
		b.WriteString(" ")
		b.WriteString(r.styles.dim.Render("(" + strings.Join(details, ", ") + ")"))
	}

	return b.String()
}

func lineLabel(line, column int, section string) string {
	s := fmt.Sprintf("line %d", line)
	if column > 0 {
		s += fmt.Sprintf(", column %d", column)
	}
	if section != "" {
		s += fmt.Sprintf(" [%s]", section)
	}

	return s
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return fmt.Sprintf("%d %ss", n, noun)
}
