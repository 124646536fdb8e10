// Package sources loads the three heterogeneous sales exports (online,
// retail, wholesale) and maps each onto the canonical row shape.
//
// Every source is described by a declarative SourceSpec: the source
// column backing each canonical field, the date layout the source
// writes, and any source-specific normalization. Adding a source is a
// spec change, not new parsing code.
//
// Adapters only rename, parse, and normalize. Filtering, imputation,
// and deduplication belong to the cleaning stage.
package sources
