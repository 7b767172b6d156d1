package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/rdecheck/rdecheck/pkg/rule"
)

// ErrUnknownKind is returned by [Schema.Kind] for undeclared file kinds.
var ErrUnknownKind = errors.New("unknown file kind")

// CellSpec is the rule chain for one cell position. A nil chain marks an
// unchecked column.
type CellSpec struct {
	Chain rule.Chain
}

// Checked reports whether the cell is validated at all.
func (c CellSpec) Checked() bool {
	return c.Chain != nil
}

// LineSpec declares one physical line: leading literal cells followed by
// cell rule chains.
type LineSpec struct {
	Literals []string
	Cells    []CellSpec
	Number   int // 1-based physical line number.
}

// CellColumn returns the 1-based column of Cells[i].
func (l *LineSpec) CellColumn(i int) int {
	return len(l.Literals) + i + 1
}

// SectionSpec is a named group of lines. Start and End are 1-based and
// inclusive; a nil End leaves the section open until the end of the file.
type SectionSpec struct {
	Start       *int
	End         *int
	Name        string
	Description string
	Lines       []*LineSpec
}

// Bounded reports whether the section declares where it starts.
func (s *SectionSpec) Bounded() bool {
	return s.Start != nil
}

// FileKindSpec declares the structure of one kind of file. Exactly one of
// Lines or Sections is set.
type FileKindSpec struct {
	ID          string
	Description string
	Lines       []*LineSpec
	Sections    []*SectionSpec
}

// DeclaredLine is a [LineSpec] together with the section declaring it.
type DeclaredLine struct {
	Line    *LineSpec
	Section string
}

// Declared flattens the declared lines in declaration order: the flat lines,
// or each section's lines in section order.
func (k *FileKindSpec) Declared() []DeclaredLine {
	var out []DeclaredLine

	for _, l := range k.Lines {
		out = append(out, DeclaredLine{Line: l})
	}

	for _, s := range k.Sections {
		for _, l := range s.Lines {
			out = append(out, DeclaredLine{Line: l, Section: s.Name})
		}
	}

	return out
}

// SectionBreak is a range of lines that must be void because they lie
// between bounded sections (or before the first one).
type SectionBreak struct {
	Before string // Section following the break.
	After  string // Section preceding the break; empty before the first section.
	Start  int
	End    int
}

// SectionBreaks returns the non-empty gaps around bounded sections, in file
// order.
func (k *FileKindSpec) SectionBreaks() []SectionBreak {
	var (
		out     []SectionBreak
		lastEnd int
		after   string
	)

	for _, s := range k.Sections {
		if !s.Bounded() {
			return nil
		}

		if *s.Start > lastEnd+1 {
			out = append(out, SectionBreak{
				After:  after,
				Before: s.Name,
				Start:  lastEnd + 1,
				End:    *s.Start - 1,
			})
		}

		if s.End == nil {
			break
		}

		lastEnd = *s.End
		after = s.Name
	}

	return out
}

// Schema is a compiled rule table.
type Schema struct {
	byID      map[string]*FileKindSpec
	FileKinds []*FileKindSpec
}

func newSchema(kinds []*FileKindSpec) *Schema {
	s := &Schema{
		FileKinds: kinds,
		byID:      make(map[string]*FileKindSpec, len(kinds)),
	}
	for _, k := range kinds {
		s.byID[k.ID] = k
	}

	return s
}

// IDs returns the file kind identifiers in declaration order.
func (s *Schema) IDs() []string {
	ids := make([]string, 0, len(s.FileKinds))
	for _, k := range s.FileKinds {
		ids = append(ids, k.ID)
	}

	return ids
}

// Kind returns the file kind with the given identifier.
func (s *Schema) Kind(id string) (*FileKindSpec, error) {
	if k, ok := s.byID[id]; ok {
		return k, nil
	}

	ids := s.IDs()

	matches := fuzzy.Find(id, ids)
	if len(matches) > 0 {
		return nil, fmt.Errorf("%w %q, did you mean: %s?", ErrUnknownKind, id, matches[0].Str)
	}

	return nil, fmt.Errorf("%w %q, must be one of: %s", ErrUnknownKind, id, strings.Join(ids, ", "))
}
