package lockmgr

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/emberlab/gasvault/lib/objectstore"
)

// ErrLockHeld is returned by WithLock when the store lock is already held by
// another writer. There is no retry; recovery is caller-driven re-invocation.
var ErrLockHeld = errors.New("store lock is held by another writer")

type lockMgrImpl struct {
	store objectstore.IObjectStore
}

// NewLockManager creates a lock manager on top of an object store. The lock
// manager keeps no state of its own, so any number of instances over the
// same store cooperate correctly.
func NewLockManager(store objectstore.IObjectStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

func (lm *lockMgrImpl) AcquireLock(bucket, key string) (bool, []byte, error) {
	// Generate owner ID (256 bit random value)
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lock (atomic CAS operation on the object store)
	won, err := lm.store.SetIfUnset(bucket, key, ownerID)
	if err != nil {
		return false, nil, err
	}
	if !won {
		return false, nil, nil
	}

	// Verify the lock was acquired BY US
	value, err := lm.store.GetObject(bucket, key)
	if err != nil {
		return false, nil, err
	}
	if bytes.Equal(value, ownerID) {
		return true, ownerID, nil
	}
	return false, nil, nil
}

func (lm *lockMgrImpl) ReleaseLock(bucket, key string, ownerID []byte) (bool, error) {
	// Check if the lock exists
	value, err := lm.store.GetObject(bucket, key)
	if err != nil {
		if objectstore.IsKeyNotFound(err) {
			return true, nil
		}
		return false, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock
	err = lm.store.DeleteObject(bucket, key)
	return err == nil, err
}

func (lm *lockMgrImpl) WithLock(bucket, key string, fn func() error) error {
	ok, ownerID, err := lm.AcquireLock(bucket, key)
	if err != nil {
		return fmt.Errorf("acquiring store lock %q: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("store lock %q: %w", key, ErrLockHeld)
	}

	defer func() {
		// Released on both the normal and the error path. A release failure
		// leaves the lock behind; the owner check makes a later manual
		// cleanup safe.
		_, _ = lm.ReleaseLock(bucket, key, ownerID)
	}()

	return fn()
}
