// Package store is the top level of the storage engine. A Store binds one
// registered data type (surface observations, fluxes, footprints) to an
// object store bucket and coordinates everything above the Datasource layer:
//
//   - file ingestion with content-hash dedup (ReadFile),
//   - parser dispatch and schema validation before any write,
//   - metadata assembly with identity keys protected from overrides,
//   - lookup-or-create against the metastore index (AssignData),
//   - read-only search over the index (Search),
//   - full removal of a datasource and its index entry (DeleteDatasource).
//
// All mutating operations run under a coarse store-level lock acquired
// through lockmgr, so concurrent callers on the same backing store cannot
// interleave lookup and registration.
//
// # Consistency model
//
// Units within one call are committed independently and in deterministic
// (sorted label) order. If the N-th unit fails, units 1..N-1 stay committed
// and the error reports the failing unit. A file's content hash is recorded
// only after every unit committed cleanly, so retrying a partially failed
// file is safe: already committed units resolve to the same Datasources and
// merge idempotently, and the remaining units get their chance.
//
// # Data types
//
// Data types are registered in a process-wide registry (see Definition and
// RegisterBuiltins). Each definition fixes the store root, the store UUID,
// the identity metadata keys and the dataset schema, optionally extending
// the schema with a variable named by a metadata value such as the species.
package store
