// Package shared holds utilities used across the pipeline that belong to
// no single stage. Only generic helpers live here; anything with domain
// semantics belongs next to the stage that owns it.
//
// The testutil subpackage provides test support, currently a log capture
// handler for asserting on structured log output.
package shared
