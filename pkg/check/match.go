package check

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rdecheck/rdecheck/pkg/schema"
)

// MatchLine checks the cells of one physical line against spec.
//
// Leading literals must equal their cells exactly. Cells beyond the row are
// fed to their chains as absent, extra row cells are ignored, and unchecked
// cell positions produce no [CellResult].
func MatchLine(spec *schema.LineSpec, cells []string) LineResult {
	res := LineResult{
		Number: spec.Number,
		Pass:   true,
		Cells:  make([]CellResult, 0, len(spec.Literals)+len(spec.Cells)),
	}

	for i, lit := range spec.Literals {
		cr := CellResult{
			Column:   i + 1,
			Expected: strconv.Quote(lit),
		}

		switch {
		case i >= len(cells):
			cr.Cause = CauseLiteralMismatch
			cr.Message = "insufficient cells"
		case cells[i] != lit:
			cr.Value = cells[i]
			cr.Present = cells[i] != ""
			cr.Cause = CauseLiteralMismatch
			cr.Message = fmt.Sprintf("%q does not equal %q", cells[i], lit)
		default:
			cr.Value = cells[i]
			cr.Present = cells[i] != ""
			cr.Pass = true
		}

		res.add(cr)
	}

	for i, cs := range spec.Cells {
		if !cs.Checked() {
			continue
		}

		col := spec.CellColumn(i)

		var text string
		if col <= len(cells) {
			text = cells[col-1]
		}

		out := cs.Chain.Evaluate(text)

		cr := CellResult{
			Column:  col,
			Value:   text,
			Present: text != "",
			Pass:    out.Pass,
			Rule:    out.Rule,
			Cause:   out.Cause,
			Message: out.Message,
			Coerced: reportable(out.Coerced),
		}
		if out.Rule != nil {
			cr.Expected = out.Rule.Expected()
		}

		res.add(cr)
	}

	return res
}

// reportable returns v in a form every report format can encode. JSON has no
// NaN or infinity, so non-finite floats become "NaN", "+Inf" and "-Inf".
func reportable(v any) any {
	f, ok := v.(float64)
	if !ok || (!math.IsNaN(f) && !math.IsInf(f, 0)) {
		return v
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (r *LineResult) add(cr CellResult) {
	r.Cells = append(r.Cells, cr)
	r.Pass = r.Pass && cr.Pass
}
