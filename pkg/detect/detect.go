package detect

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rdecheck/rdecheck/pkg/expr"
)

// MaxRows is the number of leading rows made available to expressions.
const MaxRows = 10

var environment = sync.OnceValues(func() (*expr.Environment, error) {
	return expr.NewEnvironment(
		cel.Variable("path", cel.StringType),
		cel.Variable("rows", cel.ListType(cel.ListType(cel.StringType))),
	)
})

// Rule uses a CEL matcher to determine if its file kind should be applied.
//
// CEL expressions have access to variables:
//   - `path` (string): The file path as given on the command line
//   - `rows` (list<list<string>>): The leading rows of the file, split into cells
//
// CEL expressions must return a boolean value:
//   - pathExt(path) == ".csv" - true for every CSV file
//   - pathMatch(path, "*_summary.csv") - true for summary files
//   - rows.size() > 0 && cell(rows[0], 0) == "TEST ID" - true when the first cell is "TEST ID"
//   - rows.exists(r, cell(r, 0) == "Results") - true when any leading row starts with "Results"
//
// CEL functions available:
//   - pathBase(string): Returns the last element of the path (filename)
//   - pathDir(string): Returns all but the last element of the path (directory)
//   - pathExt(string): Returns the file extension including the dot
//   - pathMatch(string, pattern): Matches the filename against a shell pattern
//   - cell(list<string>, int): Returns a cell of a row, or "" when out of range
//
// CEL also provides standard functions like `endsWith`, `contains`,
// `startsWith`, `matches`, along with list functions like `filter`, `exists`, `in`, and
// logical operators like `&&`, `||`, and `!`.
type Rule struct {
	matchProgram *expr.Program

	// Kind is the file kind to use when this rule matches.
	Kind string `json:"kind" jsonschema:"title=File Kind"`
	// Match is a CEL expression to match files.
	Match string `json:"match" jsonschema:"title=Match Expression"`
}

// New creates a new rule with the given file kind and match expression.
func New(kind, match string) (*Rule, error) {
	r := &Rule{
		Kind:  kind,
		Match: match,
	}
	if err := r.CompileMatch(); err != nil {
		return nil, fmt.Errorf("rule %q: %w", match, err)
	}

	return r, nil
}

// MustNew creates a new rule and panics if there's an error.
func MustNew(kind, match string) *Rule {
	r, err := New(kind, match)
	if err != nil {
		panic(err)
	}

	return r
}

// CompileMatch compiles the rule's match expression into a CEL program.
func (r *Rule) CompileMatch() error {
	if r.matchProgram != nil {
		return nil
	}

	if r.Kind == "" {
		return errors.New("missing kind")
	}

	env, err := environment()
	if err != nil {
		return fmt.Errorf("create CEL environment: %w", err)
	}

	program, err := env.Compile(r.Match, cel.BoolType)
	if err != nil {
		return err
	}

	r.matchProgram = program

	return nil
}

// MatchFile evaluates the rule against a file path and its leading rows.
// Rows beyond [MaxRows] are not visible to the expression.
func (r *Rule) MatchFile(path string, rows [][]string) bool {
	if r.matchProgram == nil {
		panic(errors.New("rule missing a match expression"))
	}

	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
	}

	ok, err := r.matchProgram.EvalBool(map[string]any{
		"path": path,
		"rows": rows,
	})
	if err != nil {
		// If evaluation fails, consider it a non-match.
		slog.Debug("detection rule failed",
			slog.String("kind", r.Kind),
			slog.String("path", path),
			slog.Any("err", err),
		)

		return false
	}

	return ok
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Match)
}

// Detector picks a file kind from an ordered list of rules.
type Detector struct {
	rules []*Rule
}

// NewDetector compiles the given rules and returns a [Detector] that tries
// them in order.
func NewDetector(rules ...*Rule) (*Detector, error) {
	var errs []error
	for i, r := range rules {
		if err := r.CompileMatch(); err != nil {
			errs = append(errs, fmt.Errorf("detect[%d] %q: %w", i, r.Match, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Detector{rules: rules}, nil
}

// Rules returns the detector's rules.
func (d *Detector) Rules() []*Rule {
	return d.rules
}

// Detect returns the kind of the first rule matching the file. It returns
// false when no rule matches.
func (d *Detector) Detect(path string, rows [][]string) (string, bool) {
	for _, r := range d.rules {
		if r.MatchFile(path, rows) {
			return r.Kind, true
		}
	}

	return "", false
}
