// Package schema holds the immutable rule-table model and compiles it from
// a decoded YAML document.
//
// A rule table maps file kinds to the lines they declare, either as a flat
// `lines` mapping or split into named `sections`. Each line is a list of
// cells: leading plain strings are literals that must match exactly, and the
// remaining cells hold rule chains (see package rule).
//
//	file_kinds:
//	  f1:
//	    description: Big file
//	    lines:
//	      1: [TEST ID, {req: ~}, {_istr: km/h}]
//	      2: [~, {int: ~}, [{_req: ~}, {str: foo}]]
//
// The model is built once by [Compile] or [Load] and never mutated.
package schema
