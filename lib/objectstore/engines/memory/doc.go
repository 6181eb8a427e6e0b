// Package memory implements the objectstore.IObjectStore interface with a
// process-local concurrent map. All operations are atomic per key through
// the map's compare-and-set primitives, which makes SetIfUnset a true CAS
// and the store a valid backend for the lock manager.
//
// Data does not survive the process; use the local engine for durable
// storage.
package memory
