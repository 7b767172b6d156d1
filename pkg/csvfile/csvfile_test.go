package csvfile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdecheck/rdecheck/pkg/csvfile"
)

func TestReader_SplitLine(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		line      string
		want      []string
		delimiter rune
	}{
		"plain": {
			line: "TEST ID,abc,12",
			want: []string{"TEST ID", "abc", "12"},
		},
		"empty cells": {
			line: ",,",
			want: []string{"", "", ""},
		},
		"blank line": {
			line: "",
			want: []string{""},
		},
		"spaces kept": {
			line: " ,x ",
			want: []string{" ", "x "},
		},
		"quoted delimiter": {
			line: `"fixed string","a,b",""`,
			want: []string{"fixed string", "a,b", ""},
		},
		"semicolon": {
			line:      "a;b,c",
			delimiter: ';',
			want:      []string{"a", "b,c"},
		},
		"lazy quotes": {
			line: `a "b" c,d`,
			want: []string{`a "b" c`, "d"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var opts []csvfile.Option
			if tc.delimiter != 0 {
				opts = append(opts, csvfile.WithDelimiter(tc.delimiter))
			}

			got := csvfile.NewReader(opts...).SplitLine(tc.line)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReader_Parse(t *testing.T) {
	t.Parallel()

	r := csvfile.NewReader()

	f := r.Parse("a.csv", []byte("TEST ID,1\r\n\r\nx,y\n"))
	assert.Equal(t, "a.csv", f.Name)
	assert.Equal(t, int64(17), f.Size)
	assert.Len(t, f.Digest, 64)
	assert.Equal(t, [][]string{{"TEST ID", "1"}, {""}, {"x", "y"}}, f.Lines)

	noEOL := r.Parse("b.csv", []byte("a\nb"))
	assert.Equal(t, [][]string{{"a"}, {"b"}}, noEOL.Lines)

	empty := r.Parse("c.csv", nil)
	assert.Empty(t, empty.Lines)

	assert.Equal(t, f.Digest, r.Parse("copy.csv", []byte("TEST ID,1\r\n\r\nx,y\n")).Digest)
	assert.NotEqual(t, f.Digest, noEOL.Digest)
}

func TestReader_ReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f1.csv")
	require.NoError(t, os.WriteFile(path, []byte("TEST ID,abc\n"), 0o600))

	r := csvfile.NewReader()

	f, err := r.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Name)
	assert.Equal(t, [][]string{{"TEST ID", "abc"}}, f.Lines)

	_, err = r.ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = r.ReadFile(t.TempDir())
	require.ErrorContains(t, err, "is a directory")
}

func TestReader_Read(t *testing.T) {
	t.Parallel()

	f, err := csvfile.NewReader().Read(csvfile.StdinName, strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, csvfile.StdinName, f.Name)
	assert.Equal(t, [][]string{{"a", "b"}}, f.Lines)
}

func TestParseDelimiter(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in      string
		want    rune
		wantErr bool
	}{
		"comma":      {in: ",", want: ','},
		"semicolon":  {in: ";", want: ';'},
		"tab escape": {in: `\t`, want: '\t'},
		"tab word":   {in: "tab", want: '\t'},
		"empty":      {in: "", wantErr: true},
		"too long":   {in: ",,", wantErr: true},
		"quote":      {in: `"`, wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := csvfile.ParseDelimiter(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, csvfile.ErrInvalidDelimiter)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
