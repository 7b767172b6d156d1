package rule

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// ID identifies a rule, e.g. `str` or `_int`.
type ID string

const (
	Str      ID = "str"
	OptStr   ID = "_str"
	IStr     ID = "istr"
	OptIStr  ID = "_istr"
	Regex    ID = "regex"
	OptRegex ID = "_regex"
	Int      ID = "int"
	OptInt   ID = "_int"
	Float    ID = "float"
	OptFloat ID = "_float"
	Req      ID = "req"
	OptReq   ID = "_req"

	optionalPrefix = "_"
)

var (
	ErrUnknownRule  = errors.New("unknown rule")
	ErrInvalidParam = errors.New("invalid parameter")
)

// Optional reports whether the rule passes on absent or empty cells.
func (id ID) Optional() bool {
	return strings.HasPrefix(string(id), optionalPrefix)
}

// Base returns the identifier without the optional marker.
func (id ID) Base() ID {
	return ID(strings.TrimPrefix(string(id), optionalPrefix))
}

// Spec is a rule identifier plus its optional parameter, as declared in a
// rule table.
type Spec struct {
	Param *string `json:"param,omitempty" yaml:"param,omitempty"`
	ID    ID      `json:"id"              yaml:"id"`
}

// NewSpec creates a [Spec] with a parameter.
func NewSpec(id ID, param string) Spec {
	return Spec{ID: id, Param: &param}
}

func (s Spec) String() string {
	if s.Param == nil {
		return string(s.ID)
	}

	return fmt.Sprintf("%s(%s)", s.ID, *s.Param)
}

// Expected returns a short description of what the rule expects.
func (s Spec) Expected() string {
	switch s.ID.Base() {
	case Str:
		return strconv.Quote(deref(s.Param))
	case IStr:
		return strconv.Quote(deref(s.Param)) + " (caseless)"
	case Regex:
		return "/" + deref(s.Param) + "/"
	case Int:
		return "integer"
	case Float:
		return "number"
	case Req:
		return "non-empty"
	}

	return string(s.ID)
}

type paramMode int

const (
	paramNone paramMode = iota
	paramRequired
	paramOptional
)

// checkFunc checks a present cell and returns its (possibly coerced) value.
type checkFunc func(text string) (any, error)

type family struct {
	compile     func(param *string) (checkFunc, error)
	base        ID
	description string
	param       paramMode
}

// families is the closed rule table, in listing order.
var families = []family{
	{base: Str, description: "equal the given text", param: paramRequired, compile: compileEqual},
	{base: IStr, description: "equal(caseless) the given text", param: paramRequired, compile: compileEqualFold},
	{base: Regex, description: "fully match the given regex", param: paramRequired, compile: compileRegex},
	{base: Int, description: "parse as an integer", param: paramOptional, compile: compileInt},
	{base: Float, description: "parse as a floating-point number", param: paramNone, compile: compileFloat},
	{base: Req, description: "not be empty", param: paramNone, compile: compileNonEmpty},
}

// Descriptor describes a rule for listing purposes.
type Descriptor struct {
	ID          ID     `json:"id"          yaml:"id"`
	Description string `json:"description" yaml:"description"`
}

// Registry holds the set of known rules.
type Registry struct {
	families map[ID]family
	list     []Descriptor
}

// NewRegistry creates a [Registry] with all rules and their optional twins.
func NewRegistry() *Registry {
	r := &Registry{
		families: make(map[ID]family, len(families)),
		list:     make([]Descriptor, 0, 2*len(families)),
	}

	for _, f := range families {
		r.families[f.base] = f
		r.list = append(r.list,
			Descriptor{ID: f.base, Description: f.description},
			Descriptor{ID: optionalPrefix + f.base, Description: f.description + " (or missing)"},
		)
	}

	return r
}

// List returns every rule identifier with its description, in a stable order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.list))
	copy(out, r.list)

	return out
}

// IDs returns every known rule identifier, in listing order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.list))
	for _, d := range r.list {
		ids = append(ids, string(d.ID))
	}

	return ids
}

// Has reports whether the identifier names a known rule.
func (r *Registry) Has(id ID) bool {
	_, ok := r.families[id.Base()]

	return ok
}

// Compile resolves a [Spec] into an executable [Rule].
func (r *Registry) Compile(s Spec) (*Rule, error) {
	if !r.Has(s.ID) {
		return nil, r.unknown(s.ID)
	}

	f := r.families[s.ID.Base()]

	switch {
	case f.param == paramRequired && s.Param == nil:
		return nil, fmt.Errorf("%w: rule %q requires a parameter", ErrInvalidParam, s.ID)
	case f.param == paramNone && s.Param != nil:
		return nil, fmt.Errorf("%w: rule %q takes no parameter, got %q", ErrInvalidParam, s.ID, *s.Param)
	}

	check, err := f.compile(s.Param)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %q: %w", ErrInvalidParam, s.ID, err)
	}

	return &Rule{spec: s, check: check}, nil
}

// MustCompile is like [Registry.Compile] but panics on error.
func (r *Registry) MustCompile(s Spec) *Rule {
	rl, err := r.Compile(s)
	if err != nil {
		panic(err)
	}

	return rl
}

func (r *Registry) unknown(id ID) error {
	matches := fuzzy.Find(string(id), r.IDs())
	if len(matches) == 0 {
		return fmt.Errorf("%w %q, must be one of: %s", ErrUnknownRule, id, strings.Join(r.IDs(), ", "))
	}

	suggestions := make([]string, 0, 3)
	for i, m := range matches {
		if i == 3 {
			break
		}

		suggestions = append(suggestions, m.Str)
	}

	return fmt.Errorf("%w %q, did you mean: %s?", ErrUnknownRule, id, strings.Join(suggestions, ", "))
}

// Rule is a compiled [Spec].
type Rule struct {
	check checkFunc
	spec  Spec
}

// Spec returns the declaration the rule was compiled from.
func (r *Rule) Spec() Spec {
	return r.spec
}

// Optional reports whether the rule passes on absent or empty cells.
func (r *Rule) Optional() bool {
	return r.spec.ID.Optional()
}

// Check applies the rule to present cell text. It returns the coerced value
// for numeric rules, or the text itself.
func (r *Rule) Check(text string) (any, error) {
	return r.check(text)
}

func (r *Rule) String() string {
	return r.spec.String()
}

func compileEqual(param *string) (checkFunc, error) {
	want := deref(param)

	return func(got string) (any, error) {
		if got != want {
			return nil, fmt.Errorf("%q does not equal %q", got, want)
		}

		return got, nil
	}, nil
}

func compileEqualFold(param *string) (checkFunc, error) {
	want := deref(param)
	foldedWant := cases.Fold().String(want)

	// A [cases.Caser] is stateful, so each call gets its own.
	return func(got string) (any, error) {
		if cases.Fold().String(got) != foldedWant {
			return nil, fmt.Errorf("%q does not equal(caseless) %q", got, want)
		}

		return got, nil
	}, nil
}

func compileRegex(param *string) (checkFunc, error) {
	pattern := deref(param)

	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile regex %q: %w", pattern, err)
	}

	return func(got string) (any, error) {
		if !re.MatchString(got) {
			return nil, fmt.Errorf("%q does not match regex %q", got, pattern)
		}

		return got, nil
	}, nil
}

func compileInt(param *string) (checkFunc, error) {
	base := 10
	if param != nil {
		b, err := strconv.Atoi(strings.TrimSpace(*param))
		if err != nil || b == 1 || b < 0 || b > 36 {
			return nil, fmt.Errorf("base must be 0 or between 2 and 36, got %q", *param)
		}

		base = b
	}

	return func(got string) (any, error) {
		text := strings.TrimSpace(got)

		n, err := strconv.ParseInt(text, base, 64)
		if err == nil {
			return n, nil
		}

		// Integers have no size limit; wide ones are kept as *big.Int.
		if errors.Is(err, strconv.ErrRange) {
			if b, ok := new(big.Int).SetString(text, base); ok {
				return b, nil
			}
		}

		return nil, fmt.Errorf("%q is not an integer", got)
	}, nil
}

func compileFloat(_ *string) (checkFunc, error) {
	return func(got string) (any, error) {
		// Out of range values parse as ±Inf.
		f, err := strconv.ParseFloat(strings.TrimSpace(got), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%q is not a number", got)
		}

		return f, nil
	}, nil
}

func compileNonEmpty(_ *string) (checkFunc, error) {
	return func(got string) (any, error) {
		if got == "" {
			return nil, errors.New("must not be empty")
		}

		return got, nil
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
