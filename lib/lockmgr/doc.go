// Package lockmgr implements the coarse store-level lock guarding every
// ingestion transaction, built on object stores that implement the
// objectstore.IObjectStore interface.
//
// The lock manager only ever stores in the provided object store and has no
// other internal state. Therefore it is safe to create multiple times on the
// same store; as long as the same store is used every time, all locks work
// as expected.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Safe release operations that verify ownership
//   - WithLock: the context-manager pattern; the lock is held for the
//     duration of the function and released on both normal and error exit,
//     guaranteeing at-most-one concurrent writer per store
//
// Implementation Approach:
//
//	Locks are implemented by leveraging the atomic conditional operations of
//	the underlying store. Specifically:
//
//	- Lock Acquisition: Attempts to create a key using SetIfUnset, which
//	  guarantees that only one requester can successfully create the key.
//	  The value contains a randomly generated owner ID that identifies the
//	  lock holder.
//
//	- Lock Verification: A successful SetIfUnset operation is followed by a
//	  Get operation to confirm the lock was acquired by checking that the
//	  stored value matches the owner ID.
//
//	- Safe Release: The ReleaseLock operation first verifies that the
//	  requester is the legitimate owner of the lock by comparing owner IDs
//	  before executing the Delete operation.
//
// There is deliberately no retry around acquisition: a lock that cannot be
// acquired surfaces immediately as ErrLockHeld and recovery is caller-driven
// re-invocation.
//
// Security Considerations:
//
//	The lock mechanism uses randomly generated owner IDs, which provides
//	reasonable protection against accidental lock stealing. It is not
//	designed to resist malicious access to the underlying store.
package lockmgr
