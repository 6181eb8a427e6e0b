// Package metastore implements the per-store metadata lookup index: the
// mapping from a canonical subset of metadata fields ("required keys",
// optionally extended by per-data-type optional keys) to Datasource UUIDs.
//
// Lookups are exact multi-field matches on lower-cased key/value pairs,
// never fuzzy, so resolution is deterministic. A lookup returns
// nothing (create a new Datasource), exactly one UUID, or fails loudly:
// *MissingKeysError when the offered metadata lacks required keys,
// *LookupError when more than one Datasource matches.
//
// Lookup and Search are read-only; registration happens only when a
// Datasource is actually created or updated, and deregistration accompanies
// Datasource deletion so the index never holds orphaned entries.
package metastore
