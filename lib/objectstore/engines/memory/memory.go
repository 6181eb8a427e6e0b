package memory

import (
	"fmt"

	"github.com/emberlab/gasvault/lib/objectstore"
	"github.com/puzpuzpuz/xsync/v3"
)

// storeImpl is a process-local object store backed by a concurrent map.
// Values are copied on the way in and out, so callers can never corrupt
// stored data through a retained slice.
type storeImpl struct {
	objects *xsync.MapOf[string, []byte]
}

// NewMemoryStore creates a new in-memory object store instance.
// This store implementation is not persistent and only lives for the
// process lifetime; it is the backend of choice for tests and ephemeral
// pipelines.
func NewMemoryStore() objectstore.IObjectStore {
	return &storeImpl{
		objects: xsync.NewMapOf[string, []byte](),
	}
}

// fullKey joins bucket and key into the single map key.
func fullKey(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", objectstore.NewError(objectstore.RetCInvalidKey, fmt.Sprintf("bucket %q and key %q must both be non-empty", bucket, key))
	}
	return bucket + "/" + key, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see objectstore/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Exists(bucket, key string) (bool, error) {
	fk, err := fullKey(bucket, key)
	if err != nil {
		return false, err
	}
	_, ok := s.objects.Load(fk)
	return ok, nil
}

func (s *storeImpl) GetObject(bucket, key string) ([]byte, error) {
	fk, err := fullKey(bucket, key)
	if err != nil {
		return nil, err
	}
	value, ok := s.objects.Load(fk)
	if !ok {
		return nil, objectstore.NewError(objectstore.RetCKeyNotFound, fmt.Sprintf("key %q does not exist in bucket %q", key, bucket))
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *storeImpl) SetObject(bucket, key string, data []byte) error {
	fk, err := fullKey(bucket, key)
	if err != nil {
		return err
	}
	value := make([]byte, len(data))
	copy(value, data)
	s.objects.Store(fk, value)
	return nil
}

func (s *storeImpl) SetIfUnset(bucket, key string, data []byte) (bool, error) {
	fk, err := fullKey(bucket, key)
	if err != nil {
		return false, err
	}
	value := make([]byte, len(data))
	copy(value, data)
	_, loaded := s.objects.LoadOrStore(fk, value)
	return !loaded, nil
}

func (s *storeImpl) DeleteObject(bucket, key string) error {
	fk, err := fullKey(bucket, key)
	if err != nil {
		return err
	}
	if _, ok := s.objects.LoadAndDelete(fk); !ok {
		return objectstore.NewError(objectstore.RetCKeyNotFound, fmt.Sprintf("key %q does not exist in bucket %q", key, bucket))
	}
	return nil
}
