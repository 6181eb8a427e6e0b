package lockmgr

// ILockManager defines the interface for a lock provider guarding a store.
type ILockManager interface {
	// AcquireLock acquires the lock for the given key.
	// Returns a boolean indicating whether the lock was acquired, an owner
	// ID, and an error if any.
	AcquireLock(bucket, key string) (ok bool, ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key.
	// Returns a boolean indicating whether the lock was released, and an
	// error if any. The method also returns true if the lock did not exist.
	ReleaseLock(bucket, key string, ownerID []byte) (ok bool, err error)

	// WithLock acquires the lock, runs fn and releases the lock on both the
	// normal and the error path. A failed acquisition surfaces immediately
	// as ErrLockHeld; there is no retry.
	WithLock(bucket, key string, fn func() error) error
}
