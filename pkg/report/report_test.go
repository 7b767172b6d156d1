package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdecheck/rdecheck/pkg/check"
	"github.com/rdecheck/rdecheck/pkg/report"
	"github.com/rdecheck/rdecheck/pkg/rule"
	"github.com/rdecheck/rdecheck/pkg/schema"
	"github.com/rdecheck/rdecheck/pkg/yaml"
)

func sample() *check.Report {
	return check.NewReport([]check.FileResult{
		{
			Name:   "a.csv",
			Kind:   "f1",
			Size:   17,
			Digest: "0123456789abcdef0123456789abcdef",
			Pass:   true,
			Lines:  []check.LineResult{{Number: 1, Pass: true}},
		},
		{
			Name: "b.csv",
			Kind: "f2",
			Size: 2048,
			Lines: []check.LineResult{
				{Number: 1, Section: "header", Pass: true},
				{
					Number:  2,
					Section: "header",
					Cells: []check.CellResult{
						{Column: 1, Value: "Test date", Present: true, Pass: true},
						{
							Column:   2,
							Value:    "x",
							Present:  true,
							Rule:     &rule.Spec{ID: rule.Int},
							Expected: "integer",
							Cause:    rule.CauseRuleFailed,
							Message:  `"x" is not an integer`,
						},
					},
				},
				{
					Number:  4,
					Section: "results",
					Cause:   check.CauseSectionBreak,
					Message: `lines between sections "header" and "results" must be empty`,
				},
			},
		},
	})
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		want    report.Format
		wantErr bool
	}{
		"text":       {input: "text", want: report.FormatText},
		"json":       {input: "json", want: report.FormatJSON},
		"yaml upper": {input: "YAML", want: report.FormatYAML},
		"unknown":    {input: "xml", wantErr: true},
		"empty":      {input: "", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := report.ParseFormat(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, report.ErrUnknownFormat)
				assert.Contains(t, err.Error(), "text, json, yaml")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderer_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.NewRenderer(&buf, report.FormatText).Render(sample()))

	want := `✓ a.csv (f1, 17 B, blake3:0123456789ab) OK
✗ b.csv (f2, 2.0 kB) FAILED
    line 2, column 2 [header]: rule failed: "x" is not an integer (rule int, expected integer)
    line 4 [results]: section break not empty: lines between sections "header" and "results" must be empty
2 files checked: 1 passed, 1 failed (2 failures)
`
	assert.Equal(t, want, buf.String())
}

func TestRenderer_TextVerbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.NewRenderer(&buf, report.FormatText, report.WithVerbose(true)).Render(sample()))

	assert.Contains(t, buf.String(), "    line 1: ok\n")
	assert.Contains(t, buf.String(), "    line 1 [header]: ok\n")
	assert.NotContains(t, buf.String(), "line 2, column 2 [header]: ok")
}

func TestRenderer_TextVerboseLineOrder(t *testing.T) {
	t.Parallel()

	rep := check.NewReport([]check.FileResult{{
		Name: "c.csv",
		Kind: "f1",
		Size: 10,
		Lines: []check.LineResult{
			{
				Number: 1,
				Cells: []check.CellResult{{
					Column:  2,
					Rule:    &rule.Spec{ID: rule.Req},
					Cause:   rule.CauseRequiredAbsent,
					Message: "required, absent",
				}},
			},
			{Number: 2, Pass: true},
			{Number: 3, Cause: check.CauseLineAbsent, Message: "line absent"},
		},
	}})

	var buf bytes.Buffer
	require.NoError(t, report.NewRenderer(&buf, report.FormatText, report.WithVerbose(true)).Render(rep))

	want := `✗ c.csv (f1, 10 B) FAILED
    line 1, column 2: required, absent (rule req)
    line 2: ok
    line 3: line absent
1 file checked: 0 passed, 1 failed (2 failures)
`
	assert.Equal(t, want, buf.String())
}

func TestRenderer_TextAllPassed(t *testing.T) {
	t.Parallel()

	rep := check.NewReport([]check.FileResult{{Name: "a.csv", Kind: "f1", Size: 1, Pass: true}})

	var buf bytes.Buffer
	require.NoError(t, report.NewRenderer(&buf, report.FormatText).Render(rep))
	assert.Equal(t, "✓ a.csv (f1, 1 B) OK\n1 file checked: 1 passed, 0 failed\n", buf.String())
}

func TestRenderer_TextColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.NewRenderer(&buf, report.FormatText, report.WithColor(true)).Render(sample()))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestRenderer_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.NewRenderer(&buf, report.FormatJSON).Render(sample()))

	var got check.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Failures, 2)
	assert.Equal(t, check.Failure{
		File:     "b.csv",
		Kind:     "f2",
		Section:  "header",
		Rule:     "int",
		Expected: "integer",
		Actual:   "x",
		Cause:    "rule failed",
		Message:  `"x" is not an integer`,
		Line:     2,
		Column:   2,
	}, got.Failures[0])
}

func TestRenderer_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.NewRenderer(&buf, report.FormatYAML).Render(sample()))

	var got map[string]any
	require.NoError(t, yaml.NewDecoder(&buf).Decode(&got))
	assert.EqualValues(t, 2, got["total"])
	assert.EqualValues(t, 1, got["passed"])

	failures, ok := got["failures"].([]any)
	require.True(t, ok)
	assert.Len(t, failures, 2)
}

func TestRenderer_NonFiniteCoerced(t *testing.T) {
	t.Parallel()

	reg := rule.NewRegistry()
	line := &schema.LineSpec{
		Number:   1,
		Literals: []string{"Speed"},
		Cells: []schema.CellSpec{
			{Chain: rule.Chain{reg.MustCompile(rule.Spec{ID: rule.Float})}},
			{Chain: rule.Chain{reg.MustCompile(rule.Spec{ID: rule.Float})}},
		},
	}

	lr := check.MatchLine(line, []string{"Speed", "nan", "1e400"})
	require.True(t, lr.Pass)

	rep := check.NewReport([]check.FileResult{{Name: "d.csv", Kind: "f1", Pass: true, Lines: []check.LineResult{lr}}})

	tcs := map[string]struct {
		decode func(data []byte, v any) error
		format report.Format
	}{
		"json": {format: report.FormatJSON, decode: json.Unmarshal},
		"yaml": {
			format: report.FormatYAML,
			decode: func(data []byte, v any) error {
				return yaml.NewDecoder(bytes.NewReader(data)).Decode(v)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, report.NewRenderer(&buf, tc.format).Render(rep))

			var got check.Report
			require.NoError(t, tc.decode(buf.Bytes(), &got))
			require.Len(t, got.Files, 1)
			require.Len(t, got.Files[0].Lines, 1)

			cells := got.Files[0].Lines[0].Cells
			require.Len(t, cells, 3)
			assert.Equal(t, "NaN", cells[1].Coerced)
			assert.Equal(t, "+Inf", cells[2].Coerced)
		})
	}
}

func TestRenderer_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.NewRenderer(&bytes.Buffer{}, report.Format("xml")).Render(sample())
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}
