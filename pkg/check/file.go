package check

// ParsedFile is the physical content of an input file, one slice of cells
// per line.
type ParsedFile struct {
	Name   string
	Digest string // Hex-encoded content digest.
	Lines  [][]string
	Size   int64 // Size in bytes.
}

// Line returns the cells of the 1-based physical line n.
func (f *ParsedFile) Line(n int) ([]string, bool) {
	if n < 1 || n > len(f.Lines) {
		return nil, false
	}

	return f.Lines[n-1], true
}
