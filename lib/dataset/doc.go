// Package dataset holds the in-memory model for time-indexed array data and
// the schema validation that gates what the storage engine accepts.
//
// A Dataset pairs one time index with named float columns of equal length
// and free-form string attributes; it is the uniform shape every parser
// produces and the unit the versioned merge operates on.
//
// Core Functionality:
//   - Row-wise operations: SortByTime (stable), DropDuplicates (keep-first),
//     UTC normalization
//   - Concat: the time-axis splice used by the "combine" overlap policy,
//     with an explicit winner for duplicate timestamps
//   - Schema / Validate: a declared minimal set of dimensions and dtyped
//     variables a dataset must satisfy before storage; failures are reported
//     exhaustively through *SchemaError and abort the affected parsed unit
//
// Validation never mutates the dataset, so a failed ingestion leaves both
// the input and the store untouched.
package dataset
