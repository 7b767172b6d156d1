// Package check validates parsed CSV files against compiled file kinds.
//
// [MatchLine] checks one physical line against its [schema.LineSpec],
// [Validate] walks every declared line of a file kind, and [ValidateMany]
// validates a batch of files into a [Report]. Validation failures are results,
// never errors: every declared check always runs.
package check
