// Package objectstore defines the interface to the blob + JSON key-value
// store the whole engine persists into, together with a unified error
// system. The engine never depends on how bytes physically land on disk;
// everything above this package sees only buckets, keys and atomic per-key
// get/set/exists/delete operations.
//
// The package focuses on:
//   - A unified interface (IObjectStore) for object operations across
//     different backends
//   - Pluggable backend architecture through the StoreFactory pattern
//   - JSON helpers layered over the raw byte operations, so records (the
//     Datasource document, the store root document, the lookup index) are
//     stored as plain JSON
//
// Key Components:
//
//   - IObjectStore Interface: Exists, GetObject, SetObject, SetIfUnset and
//     DeleteObject, each atomic per key. SetIfUnset is the compare-and-set
//     primitive the lock manager is built on.
//
//   - Error System: a structured error type with typed return codes
//     (RetCKeyNotFound, RetCInternalError, ...) so callers can distinguish a
//     missing key from a backend failure without string matching.
//
// Implementations:
//
//	The package includes two implementations of the IObjectStore interface:
//
//	- Memory Store: a process-local implementation backed by a concurrent
//	  map, suitable for tests and ephemeral pipelines. Available in the
//	  "github.com/emberlab/gasvault/lib/objectstore/engines/memory" package.
//
//	- Local Store: a filesystem implementation storing one file per key
//	  under the bucket directory, writing through temp-file rename so a
//	  partial write never replaces a valid object. Available in the
//	  "github.com/emberlab/gasvault/lib/objectstore/engines/local" package.
//
// Retry policy, if any, belongs to the engine behind this interface; the
// storage core propagates object store errors without retrying.
package objectstore
