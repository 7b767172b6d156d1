package check

import (
	"github.com/rdecheck/rdecheck/pkg/rule"
)

// Causes reported in addition to those of [rule.Chain.Evaluate].
const (
	CauseLiteralMismatch rule.Cause = "literal mismatch"
	CauseLineAbsent      rule.Cause = "line absent"
	CauseSectionBreak    rule.Cause = "section break not empty"
)

// CellResult is the outcome of checking one cell.
type CellResult struct {
	Coerced  any        `json:"coerced,omitempty"` // Non-finite floats are strings.
	Rule     *rule.Spec `json:"rule,omitempty"`    // Nil for literal cells.
	Value    string     `json:"value"`
	Expected string     `json:"expected,omitempty"`
	Cause    rule.Cause `json:"cause,omitempty"`
	Message  string     `json:"message,omitempty"`
	Column   int        `json:"column"` // 1-based.
	Present  bool       `json:"present"`
	Pass     bool       `json:"pass"`
}

// LineResult is the outcome of checking one declared line. Cause is only set
// for line-level failures (an absent line or a non-void section break).
type LineResult struct {
	Section string       `json:"section,omitempty"`
	Cause   rule.Cause   `json:"cause,omitempty"`
	Message string       `json:"message,omitempty"`
	Cells   []CellResult `json:"cells,omitempty"`
	Number  int          `json:"number"`
	Pass    bool         `json:"pass"`
}

// FileResult is the outcome of validating one file.
type FileResult struct {
	Name   string       `json:"name"`
	Kind   string       `json:"kind"`
	Digest string       `json:"digest,omitempty"`
	Lines  []LineResult `json:"lines"`
	Size   int64        `json:"size"`
	Pass   bool         `json:"pass"`
}
