// Package serializer provides the codecs that turn one time-indexed dataset
// chunk into the byte blob stored under a data key, and back. It defines a
// common interface and multiple implementations so the storage layer never
// depends on a concrete encoding.
//
// The package focuses on:
//   - Providing a consistent interface for different encodings
//   - Keeping the Datasource layer independent of the block format
//
// Key Components:
//
//   - IDatasetSerializer: Core interface that all serializer implementations
//     must satisfy.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding.
//     Gob represents NaN exactly, which spliced datasets with padded columns
//     require, so this is the default for stored blocks.
//
//   - jsonSerializerImpl: Implementation using JSON encoding, useful for
//     debugging or interoperability, but unable to encode NaN values.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
package serializer
