// Package rule defines the cell rules that can be declared in a rule table,
// and evaluates ordered chains of them against the text of a single CSV cell.
//
// The rule set is closed: every identifier is listed in the [Registry], which
// is constructed once with [NewRegistry] and passed explicitly to whatever
// compiles or lists rules.
//
// Each rule has an optional twin whose identifier starts with an underscore
// (e.g. `_int`). Optional rules treat an absent or empty cell as satisfied,
// and only constrain the cell when it has content:
//
//	str     equal the given text
//	istr    equal(caseless) the given text
//	regex   fully match the given regex
//	int     parse as an integer (optional base parameter)
//	float   parse as a floating-point number
//	req     not be empty
package rule
