package schema

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/rdecheck/rdecheck/pkg/rule"
)

var kindID = regexp.MustCompile(`^\w+$`)

// Compile builds a [Schema] from a decoded rule-table document.
//
// Mappings may be [yaml.MapSlice] (declaration order is kept) or plain Go
// maps (keys are sorted, numerically for line numbers). Every rule is
// compiled with reg, so unknown rules and bad parameters are reported here,
// before any file is validated.
func Compile(doc any, reg *rule.Registry) (*Schema, error) {
	root, ok := asMapping(doc)
	if !ok {
		return nil, rootPath.errorf("document must be a mapping, got %s", typeName(doc))
	}

	var fileKinds any

	for _, item := range root {
		key := keyString(item.Key)
		switch key {
		case "apiVersion", "kind":
		case "file_kinds":
			fileKinds = item.Value
		default:
			return nil, rootPath.child(key).errorf("unknown key %q", key)
		}
	}

	path := rootPath.child("file_kinds")

	kindsMap, ok := asMapping(fileKinds)
	if !ok || len(kindsMap) == 0 {
		return nil, path.errorf("must be a non-empty mapping of file kinds")
	}

	c := &compiler{reg: reg}
	kinds := make([]*FileKindSpec, 0, len(kindsMap))

	for _, item := range kindsMap {
		id := keyString(item.Key)

		k, err := c.fileKind(path.child(id), id, item.Value)
		if err != nil {
			return nil, err
		}

		kinds = append(kinds, k)
	}

	return newSchema(kinds), nil
}

type compiler struct {
	reg *rule.Registry
}

func (c *compiler) fileKind(path docPath, id string, v any) (*FileKindSpec, error) {
	if !kindID.MatchString(id) {
		return nil, path.errorf("file kind %q must only contain letters, digits and underscores", id)
	}

	body, ok := asMapping(v)
	if !ok {
		return nil, path.errorf("file kind must be a mapping, got %s", typeName(v))
	}

	k := &FileKindSpec{ID: id}

	var (
		lines, sections       any
		hasLines, hasSections bool
	)

	for _, item := range body {
		key := keyString(item.Key)
		switch key {
		case "description":
			desc, err := description(path.child(key), item.Value)
			if err != nil {
				return nil, err
			}

			k.Description = desc

		case "lines":
			lines, hasLines = item.Value, true
		case "sections":
			sections, hasSections = item.Value, true
		default:
			return nil, path.child(key).errorf("unknown key %q", key)
		}
	}

	var err error

	switch {
	case hasLines && hasSections:
		return nil, path.errorf("declares both lines and sections")
	case hasLines:
		k.Lines, err = c.lines(path.child("lines"), lines, nil, nil)
	case hasSections:
		k.Sections, err = c.sections(path.child("sections"), sections)
	default:
		return nil, path.errorf("declares neither lines nor sections")
	}

	if err != nil {
		return nil, err
	}

	return k, nil
}

func (c *compiler) sections(path docPath, v any) ([]*SectionSpec, error) {
	m, ok := asMapping(v)
	if !ok || len(m) == 0 {
		return nil, path.errorf("must be a non-empty mapping of sections")
	}

	out := make([]*SectionSpec, 0, len(m))
	seen := map[int]string{}

	for _, item := range m {
		name := keyString(item.Key)

		s, err := c.section(path.child(name), name, item.Value)
		if err != nil {
			return nil, err
		}

		for _, l := range s.Lines {
			if other, dup := seen[l.Number]; dup {
				return nil, path.child(name).child("lines").errorf(
					"line %d is already declared in section %q", l.Number, other)
			}

			seen[l.Number] = name
		}

		out = append(out, s)
	}

	err := checkBounds(path, out)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *compiler) section(path docPath, name string, v any) (*SectionSpec, error) {
	body, ok := asMapping(v)
	if !ok {
		return nil, path.errorf("section must be a mapping, got %s", typeName(v))
	}

	s := &SectionSpec{Name: name}

	var (
		lines    any
		hasLines bool
	)

	for _, item := range body {
		key := keyString(item.Key)
		switch key {
		case "description":
			desc, err := description(path.child(key), item.Value)
			if err != nil {
				return nil, err
			}

			s.Description = desc

		case "start", "end":
			if item.Value == nil {
				if key == "start" {
					return nil, path.child(key).errorf("start must not be null")
				}

				continue
			}

			n, err := positiveInt(item.Value)
			if err != nil {
				return nil, path.child(key).wrap(err)
			}

			if key == "start" {
				s.Start = &n
			} else {
				s.End = &n
			}

		case "lines":
			lines, hasLines = item.Value, true
		default:
			return nil, path.child(key).errorf("unknown key %q", key)
		}
	}

	if !hasLines {
		return nil, path.errorf("section declares no lines")
	}

	if s.End != nil && s.Start == nil {
		return nil, path.child("end").errorf("end requires start")
	}

	if s.End != nil && *s.End < *s.Start {
		return nil, path.errorf("zero-length section: end %d is before start %d", *s.End, *s.Start)
	}

	var err error

	s.Lines, err = c.lines(path.child("lines"), lines, s.Start, s.End)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// checkBounds requires either all sections or none to declare a start.
// Bounded sections are sorted by start, whatever their declaration order,
// and must not overlap or follow an open-ended section.
func checkBounds(path docPath, sections []*SectionSpec) error {
	bounded := sections[0].Bounded()

	for _, s := range sections {
		if s.Bounded() != bounded {
			return path.child(s.Name).errorf("either all sections or none must declare start")
		}
	}

	if !bounded {
		return nil
	}

	slices.SortStableFunc(sections, func(a, b *SectionSpec) int {
		return cmp.Compare(*a.Start, *b.Start)
	})

	for i, s := range sections[1:] {
		prev := sections[i]

		if prev.End == nil {
			return path.child(s.Name).errorf("section follows open-ended section %q", prev.Name)
		}

		if *s.Start <= *prev.End {
			return path.child(s.Name).errorf("section overlaps section %q (start %d, previous end %d)",
				prev.Name, *s.Start, *prev.End)
		}
	}

	return nil
}

func (c *compiler) lines(path docPath, v any, start, end *int) ([]*LineSpec, error) {
	m, ok := asMapping(v)
	if !ok {
		return nil, path.errorf("lines must be a mapping of line numbers, got %s", typeName(v))
	}

	out := make([]*LineSpec, 0, len(m))

	for _, item := range m {
		key := keyString(item.Key)
		lpath := path.child(key)

		n, err := positiveInt(item.Key)
		if err != nil {
			return nil, lpath.errorf("line key: %w", err)
		}

		if start != nil && (n < *start || (end != nil && n > *end)) {
			return nil, lpath.errorf("line %d is outside its section (%s)", n, bounds(*start, end))
		}

		l, err := c.line(lpath, n, item.Value)
		if err != nil {
			return nil, err
		}

		out = append(out, l)
	}

	return out, nil
}

func (c *compiler) line(path docPath, n int, v any) (*LineSpec, error) {
	l := &LineSpec{Number: n}

	if v == nil {
		return l, nil
	}

	cells, ok := v.([]any)
	if !ok {
		return nil, path.errorf("line must be a list of cells, got %s", typeName(v))
	}

	literals := true

	for i, cell := range cells {
		cpath := path.index(i)

		if s, ok := cell.(string); ok && literals {
			l.Literals = append(l.Literals, s)

			continue
		}

		literals = false

		spec, err := c.cell(cpath, cell)
		if err != nil {
			return nil, err
		}

		l.Cells = append(l.Cells, spec)
	}

	return l, nil
}

func (c *compiler) cell(path docPath, v any) (CellSpec, error) {
	switch t := v.(type) {
	case nil:
		return CellSpec{}, nil

	case string:
		r, err := c.compile(path, rule.NewSpec(rule.Str, t))
		if err != nil {
			return CellSpec{}, err
		}

		return CellSpec{Chain: rule.Chain{r}}, nil

	case []any:
		chain := rule.Chain{}

		for i, elem := range t {
			epath := path.index(i)

			if s, ok := elem.(string); ok {
				r, err := c.compile(epath, rule.NewSpec(rule.Str, s))
				if err != nil {
					return CellSpec{}, err
				}

				chain = append(chain, r)

				continue
			}

			rules, err := c.ruleMap(epath, elem)
			if err != nil {
				return CellSpec{}, err
			}

			chain = append(chain, rules...)
		}

		return CellSpec{Chain: chain}, nil
	}

	rules, err := c.ruleMap(path, v)
	if err != nil {
		return CellSpec{}, err
	}

	return CellSpec{Chain: append(rule.Chain{}, rules...)}, nil
}

// ruleMap compiles a `{rule: param, ...}` mapping in declaration order.
func (c *compiler) ruleMap(path docPath, v any) ([]*rule.Rule, error) {
	m, ok := asMapping(v)
	if !ok {
		return nil, path.errorf(
			"cell must be a string, null, a rule mapping or a list of rule mappings, got %s (quote literal numbers)",
			typeName(v))
	}

	out := make([]*rule.Rule, 0, len(m))

	for _, item := range m {
		id := keyString(item.Key)
		rpath := path.child(id)

		spec := rule.Spec{ID: rule.ID(id)}

		if item.Value != nil {
			param, err := paramString(item.Value)
			if err != nil {
				return nil, rpath.wrap(err)
			}

			spec.Param = &param
		}

		r, err := c.compile(rpath, spec)
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}

func (c *compiler) compile(path docPath, spec rule.Spec) (*rule.Rule, error) {
	r, err := c.reg.Compile(spec)
	if err != nil {
		return nil, path.wrap(err)
	}

	return r, nil
}

func description(path docPath, v any) (string, error) {
	if v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", path.errorf("description must be a string, got %s", typeName(v))
	}

	return s, nil
}

func bounds(start int, end *int) string {
	if end == nil {
		return fmt.Sprintf("%d-", start)
	}

	return fmt.Sprintf("%d-%d", start, *end)
}

// asMapping returns the items of a decoded mapping. Plain Go maps are
// returned sorted by key.
func asMapping(v any) (yaml.MapSlice, bool) {
	switch t := v.(type) {
	case yaml.MapSlice:
		return t, true

	case map[string]any:
		out := make(yaml.MapSlice, 0, len(t))
		for k, val := range t {
			out = append(out, yaml.MapItem{Key: k, Value: val})
		}

		sortItems(out)

		return out, true

	case map[any]any:
		out := make(yaml.MapSlice, 0, len(t))
		for k, val := range t {
			out = append(out, yaml.MapItem{Key: k, Value: val})
		}

		sortItems(out)

		return out, true
	}

	return nil, false
}

func sortItems(items yaml.MapSlice) {
	slices.SortFunc(items, func(a, b yaml.MapItem) int {
		ak, bk := keyString(a.Key), keyString(b.Key)

		an, aerr := strconv.Atoi(ak)
		bn, berr := strconv.Atoi(bk)
		if aerr == nil && berr == nil {
			return cmp.Compare(an, bn)
		}

		return cmp.Compare(ak, bk)
	})
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}

	return fmt.Sprint(k)
}

var errNotPositive = errors.New("must be a positive integer")

func positiveInt(v any) (int, error) {
	var n int64

	switch t := v.(type) {
	case int:
		n = int64(t)
	case int64:
		n = t
	case uint64:
		if t > uint64(maxLine) {
			return 0, fmt.Errorf("%w, got %d", errNotPositive, t)
		}

		n = int64(t)
	case string:
		parsed, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w, got %q", errNotPositive, t)
		}

		n = parsed
	default:
		return 0, fmt.Errorf("%w, got %s", errNotPositive, typeName(v))
	}

	if n < 1 || n > maxLine {
		return 0, fmt.Errorf("%w, got %d", errNotPositive, n)
	}

	return int(n), nil
}

const maxLine = 1 << 31

func paramString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), nil
	}

	return "", fmt.Errorf("rule parameter must be a scalar, got %s", typeName(v))
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "list"
	}

	if _, ok := asMapping(v); ok {
		return "mapping"
	}

	return fmt.Sprintf("%T", v)
}
