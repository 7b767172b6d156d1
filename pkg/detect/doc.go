// Package detect chooses a file kind for input files that were given without
// one, by using CEL (Common Expression Language) expressions.
//
// The expressions have access to the file path and its leading rows, allowing
// a rule to look at the file name as well as its header lines.
package detect
