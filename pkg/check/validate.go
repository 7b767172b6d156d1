package check

import (
	"fmt"

	"github.com/rdecheck/rdecheck/pkg/schema"
)

// Validate checks every declared line of kind against file. It never stops
// early: each declared line yields a [LineResult], absent lines included.
// Non-void lines inside section breaks are reported after the declared lines.
//
// Validate is a pure function of its inputs.
func Validate(kind *schema.FileKindSpec, file *ParsedFile) FileResult {
	res := FileResult{
		Name:   file.Name,
		Kind:   kind.ID,
		Size:   file.Size,
		Digest: file.Digest,
		Pass:   true,
	}

	for _, d := range kind.Declared() {
		var lr LineResult

		cells, ok := file.Line(d.Line.Number)
		if ok {
			lr = MatchLine(d.Line, cells)
		} else {
			lr = LineResult{
				Number:  d.Line.Number,
				Cause:   CauseLineAbsent,
				Message: fmt.Sprintf("file has only %d lines", len(file.Lines)),
			}
		}

		lr.Section = d.Section
		res.add(lr)
	}

	for _, b := range kind.SectionBreaks() {
		for n := b.Start; n <= b.End; n++ {
			cells, ok := file.Line(n)
			if !ok {
				break
			}

			if isVoid(cells) {
				continue
			}

			res.add(LineResult{
				Number:  n,
				Section: b.Before,
				Cause:   CauseSectionBreak,
				Message: breakMessage(b),
			})
		}
	}

	return res
}

func (r *FileResult) add(lr LineResult) {
	r.Lines = append(r.Lines, lr)
	r.Pass = r.Pass && lr.Pass
}

// isVoid reports whether a line holds nothing but delimiters.
func isVoid(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}

	return true
}

func breakMessage(b schema.SectionBreak) string {
	if b.After == "" {
		return fmt.Sprintf("lines before section %q must be empty", b.Before)
	}

	return fmt.Sprintf("lines between sections %q and %q must be empty", b.After, b.Before)
}
