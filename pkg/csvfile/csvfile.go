// Package csvfile reads CSV input files into [check.ParsedFile]s.
//
// Files are split per physical line, so that line numbers in reports match
// what an editor shows. Each line is split into cells with [csv.Reader]
// semantics (quoted cells may contain the delimiter), but a quoted cell never
// spans lines.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/rdecheck/rdecheck/api"
	"github.com/rdecheck/rdecheck/pkg/check"
)

// StdinName is the name given to files read from standard input.
const StdinName = "<stdin>"

var ErrInvalidDelimiter = errors.New("invalid delimiter")

// Reader reads and splits CSV files.
type Reader struct {
	delimiter rune
}

// Option configures a [Reader].
type Option func(*Reader)

// WithDelimiter sets the cell delimiter. The default is a comma.
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		r.delimiter = d
	}
}

// NewReader creates a new [Reader].
func NewReader(opts ...Option) *Reader {
	r := &Reader{delimiter: ','}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ParseDelimiter parses a delimiter flag value. It accepts a single
// character, or `\t` / `tab` for a tab.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}

	d, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, fmt.Errorf("%w %q: must be a single character", ErrInvalidDelimiter, s)
	}

	if d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError {
		return 0, fmt.Errorf("%w %q", ErrInvalidDelimiter, s)
	}

	return d, nil
}

// ReadFile reads the file at path.
func (r *Reader) ReadFile(path string) (*check.ParsedFile, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	return r.Parse(path, data), nil
}

// Read reads all of rd, e.g. standard input.
func (r *Reader) Read(name string, rd io.Reader) (*check.ParsedFile, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return r.Parse(name, data), nil
}

// Parse splits data into lines and cells.
func (r *Reader) Parse(name string, data []byte) *check.ParsedFile {
	sum := blake3.Sum256(data)

	f := &check.ParsedFile{
		Name:   name,
		Size:   int64(len(data)),
		Digest: hex.EncodeToString(sum[:]),
	}

	content := string(bytes.TrimSuffix(data, []byte("\n")))
	if content == "" && len(data) == 0 {
		return f
	}

	lines := strings.Split(content, "\n")
	f.Lines = make([][]string, 0, len(lines))

	for _, line := range lines {
		f.Lines = append(f.Lines, r.SplitLine(strings.TrimSuffix(line, "\r")))
	}

	return f
}

// SplitLine splits one line into cells. Lines with malformed quoting fall
// back to a plain split on the delimiter.
func (r *Reader) SplitLine(line string) []string {
	if line == "" {
		return []string{""}
	}

	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = r.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cells, err := cr.Read()
	if err != nil {
		return strings.Split(line, string(r.delimiter))
	}

	return cells
}
