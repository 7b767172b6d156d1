// Package expr provides CEL (Common Expression Language) functionality
// for evaluating expressions against input files before they are validated.
//
// It creates CEL environments with custom functions for:
//   - File path operations (pathBase, pathDir, pathExt, pathMatch)
//   - Row access (cell)
//
// Variables are declared by the caller via [cel.EnvOption]s passed to
// [NewEnvironment]; see the detect package for the set used in kind detection.
package expr
