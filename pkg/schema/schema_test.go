package schema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdecheck/rdecheck/pkg/rule"
	"github.com/rdecheck/rdecheck/pkg/schema"
)

// lineView is a comparable projection of a [schema.LineSpec].
type lineView struct {
	Section  string
	Literals []string
	Cells    [][]rule.Spec
	Number   int
}

func view(k *schema.FileKindSpec) []lineView {
	var out []lineView

	for _, d := range k.Declared() {
		lv := lineView{Number: d.Line.Number, Section: d.Section, Literals: d.Line.Literals}
		for _, c := range d.Line.Cells {
			if !c.Checked() {
				lv.Cells = append(lv.Cells, nil)

				continue
			}

			lv.Cells = append(lv.Cells, c.Chain.Specs())
		}

		out = append(out, lv)
	}

	return out
}

func load(t *testing.T, src string) *schema.Schema {
	t.Helper()

	s, err := schema.Load([]byte(src), rule.NewRegistry())
	require.NoError(t, err)

	return s
}

func TestDefault(t *testing.T) {
	t.Parallel()

	s, err := schema.Default(rule.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, []string{"f1", "f2"}, s.IDs())

	f1, err := s.Kind("f1")
	require.NoError(t, err)
	assert.Equal(t, "Big file", f1.Description)
	require.Len(t, f1.Lines, 16)
	assert.Equal(t, []string{"TEST ID"}, f1.Lines[0].Literals)
	assert.Equal(t, 16, f1.Lines[15].Number)
	assert.Empty(t, f1.SectionBreaks())

	f2, err := s.Kind("f2")
	require.NoError(t, err)
	require.Len(t, f2.Sections, 2)
	assert.Equal(t, "header", f2.Sections[0].Name)
	assert.Nil(t, f2.Sections[1].End)
	assert.Equal(t, []schema.SectionBreak{
		{After: "header", Before: "results", Start: 4, End: 4},
	}, f2.SectionBreaks())
}

func TestLoad_CellForms(t *testing.T) {
	t.Parallel()

	s := load(t, `
file_kinds:
  f1:
    lines:
      2: [a, b, ~, c, {_istr: km/h}, [{_req: ~}, {str: foo}], {int: 16, _regex: '\d+'}, []]
      1: ~
`)

	k, err := s.Kind("f1")
	require.NoError(t, err)

	want := []lineView{
		{
			Number:   2,
			Literals: []string{"a", "b"},
			Cells: [][]rule.Spec{
				nil,
				{rule.NewSpec(rule.Str, "c")},
				{rule.NewSpec(rule.OptIStr, "km/h")},
				{{ID: rule.OptReq}, rule.NewSpec(rule.Str, "foo")},
				{rule.NewSpec(rule.Int, "16"), rule.NewSpec(rule.OptRegex, `\d+`)},
				{},
			},
		},
		{Number: 1},
	}

	if diff := cmp.Diff(want, view(k)); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 4, k.Lines[0].CellColumn(1))
}

func TestLoad_EquivalentSpellings(t *testing.T) {
	t.Parallel()

	flow := load(t, `
file_kinds:
  f1:
    lines:
      1: [TEST ID, [{req: ~}], {_int: ~}]
`)

	block := load(t, `
apiVersion: rdecheck.dev/v1beta1
kind: RuleTable
file_kinds:
  f1:
    lines:
      "1":
        - TEST ID
        - req: null
        - - _int: ~
`)

	fk, err := flow.Kind("f1")
	require.NoError(t, err)
	bk, err := block.Kind("f1")
	require.NoError(t, err)

	if diff := cmp.Diff(view(fk), view(bk)); diff != "" {
		t.Errorf("spellings differ (-flow +block):\n%s", diff)
	}
}

func TestCompile_PlainMapsSortLines(t *testing.T) {
	t.Parallel()

	s, err := schema.Compile(map[string]any{
		"file_kinds": map[string]any{
			"f1": map[string]any{
				"lines": map[string]any{
					"10": []any{"x"},
					"2":  []any{"y"},
					"1":  nil,
				},
			},
		},
	}, rule.NewRegistry())
	require.NoError(t, err)

	k, err := s.Kind("f1")
	require.NoError(t, err)

	var got []int
	for _, l := range k.Lines {
		got = append(got, l.Number)
	}

	assert.Equal(t, []int{1, 2, 10}, got)
}

func TestLoad_SectionsSortedByStart(t *testing.T) {
	t.Parallel()

	s, err := schema.Load([]byte(`
file_kinds:
  f2:
    sections:
      data: {start: 4, lines: {4: [b]}}
      header: {start: 1, end: 2, lines: {1: [a]}}
`), rule.NewRegistry())
	require.NoError(t, err)

	k, err := s.Kind("f2")
	require.NoError(t, err)

	var got []string
	for _, sec := range k.Sections {
		got = append(got, sec.Name)
	}

	assert.Equal(t, []string{"header", "data"}, got)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errIs   error
		input   string
		errMsg  string
		path    string
		noTyped bool
	}{
		"empty document": {
			input:  ``,
			errMsg: "empty rule table",
			path:   "$",
		},
		"unknown rule": {
			input: `
file_kinds:
  f1:
    lines:
      1: [a, {flt: ~}]
`,
			errIs:  rule.ErrUnknownRule,
			errMsg: "did you mean",
			path:   "$.file_kinds.f1.lines.1[1].flt",
		},
		"bad regex": {
			input: `
file_kinds:
  f1:
    lines:
      1: [{regex: '(\d'}]
`,
			errIs: rule.ErrInvalidParam,
			path:  "$.file_kinds.f1.lines.1[0].regex",
		},
		"missing parameter": {
			input: `
file_kinds:
  f1:
    lines:
      3: [~, {str: ~}]
`,
			errIs:  rule.ErrInvalidParam,
			errMsg: "requires a parameter",
		},
		"line key not positive": {
			input: `
file_kinds:
  f1:
    lines:
      0: [a]
`,
		},
		"unknown top-level key": {
			input: `
file_kinds:
  f1:
    lines:
      1: [a]
extra: 1
`,
		},
		"lines and sections": {
			input: `
file_kinds:
  f1:
    lines: {1: [a]}
    sections: {s: {lines: {1: [a]}}}
`,
		},
		"numeric cell": {
			input: `
file_kinds:
  f1:
    lines:
      1: [a, 5]
`,
		},
		"overlapping sections": {
			input: `
file_kinds:
  f2:
    sections:
      header: {start: 1, end: 3, lines: {1: [a]}}
      data: {start: 3, lines: {3: [b]}}
`,
			errMsg: "overlaps section",
			path:   "$.file_kinds.f2.sections.data",
		},
		"overlapping sections out of order": {
			input: `
file_kinds:
  f2:
    sections:
      data: {start: 3, lines: {3: [b]}}
      header: {start: 1, end: 3, lines: {1: [a]}}
`,
			errMsg: "overlaps section",
			path:   "$.file_kinds.f2.sections.data",
		},
		"section after open end": {
			input: `
file_kinds:
  f2:
    sections:
      header: {start: 1, lines: {1: [a]}}
      data: {start: 5, lines: {5: [b]}}
`,
			errMsg: "open-ended",
		},
		"zero-length section": {
			input: `
file_kinds:
  f2:
    sections:
      header: {start: 3, end: 2, lines: {}}
`,
			errMsg: "zero-length",
		},
		"line outside section": {
			input: `
file_kinds:
  f2:
    sections:
      header: {start: 1, end: 3, lines: {4: [a]}}
`,
			errMsg: "outside its section",
			path:   "$.file_kinds.f2.sections.header.lines.4",
		},
		"mixed bounds": {
			input: `
file_kinds:
  f2:
    sections:
      header: {start: 1, end: 3, lines: {1: [a]}}
      data: {lines: {5: [b]}}
`,
			errMsg: "either all sections or none",
		},
		"duplicate line across sections": {
			input: `
file_kinds:
  f2:
    sections:
      header: {lines: {1: [a]}}
      data: {lines: {1: [b]}}
`,
			errMsg: `already declared in section "header"`,
		},
		"invalid yaml": {
			input:   "file_kinds: [",
			noTyped: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := schema.Load([]byte(tc.input), rule.NewRegistry())
			require.Error(t, err)
			assert.Nil(t, s)

			if tc.noTyped {
				return
			}

			var se *schema.SchemaError
			require.ErrorAs(t, err, &se)

			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
			}
			if tc.errMsg != "" {
				assert.Contains(t, err.Error(), tc.errMsg)
			}
			if tc.path != "" {
				assert.Equal(t, tc.path, se.Path)
			}
		})
	}
}

func TestSchema_Kind(t *testing.T) {
	t.Parallel()

	s, err := schema.Default(rule.NewRegistry())
	require.NoError(t, err)

	_, err = s.Kind("f")
	require.ErrorIs(t, err, schema.ErrUnknownKind)
	assert.Contains(t, err.Error(), "did you mean")

	_, err = s.Kind("zzz")
	require.ErrorIs(t, err, schema.ErrUnknownKind)
	assert.Contains(t, err.Error(), "f1, f2")
}

func TestSchemaError_YAMLPath(t *testing.T) {
	t.Parallel()

	se := &schema.SchemaError{Path: "$.file_kinds.f1.lines.1[0]._int"}
	require.NotNil(t, se.YAMLPath())
	assert.Equal(t, se.Path, se.YAMLPath().String())
}

func TestJSONSchema(t *testing.T) {
	t.Parallel()

	assert.Contains(t, string(schema.JSONSchema()), schema.SchemaURL)
	assert.Contains(t, string(schema.DefaultTable()), "file_kinds:")
}
