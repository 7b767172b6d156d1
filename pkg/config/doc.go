// Package config loads typed configuration files.
//
// A [Loader] validates YAML data against a JSON schema, decodes it into a
// [v1beta1.Object], and fills in defaults. Errors that point at a node in the
// data are annotated with the surrounding source lines.
package config
