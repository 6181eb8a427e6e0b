package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emberlab/gasvault/lib/objectstore"
)

// dataSuffix is appended to every object file, so key directories and data
// files can never collide (a key can be a prefix of another key).
const dataSuffix = "._data"

// storeImpl is a filesystem object store: one file per key under the bucket
// directory. Writes go through a temp file and rename, so a partial write
// never replaces a valid object.
type storeImpl struct {
	root string
}

// NewLocalStore creates an object store rooted at the given directory.
// Buckets become subdirectories of the root; keys become file paths inside
// their bucket.
func NewLocalStore(root string) objectstore.IObjectStore {
	return &storeImpl{root: root}
}

// path maps a bucket/key pair onto a filesystem path, rejecting anything
// that would escape the store root.
func (s *storeImpl) path(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", objectstore.NewError(objectstore.RetCInvalidKey, fmt.Sprintf("bucket %q and key %q must both be non-empty", bucket, key))
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", objectstore.NewError(objectstore.RetCInvalidKey, fmt.Sprintf("key %q contains an invalid path segment", key))
		}
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(key)+dataSuffix), nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see objectstore/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Exists(bucket, key string) (bool, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	return true, nil
}

func (s *storeImpl) GetObject(bucket, key string) ([]byte, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, objectstore.NewError(objectstore.RetCKeyNotFound, fmt.Sprintf("key %q does not exist in bucket %q", key, bucket))
		}
		return nil, objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	return data, nil
}

func (s *storeImpl) SetObject(bucket, key string, data []byte) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	return nil
}

func (s *storeImpl) SetIfUnset(bucket, key string, data []byte) (bool, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return false, objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}

	// O_EXCL makes creation the compare-and-set: exactly one concurrent
	// caller can create the file.
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	if err := f.Close(); err != nil {
		return false, objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	return true, nil
}

func (s *storeImpl) DeleteObject(bucket, key string) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return objectstore.NewError(objectstore.RetCKeyNotFound, fmt.Sprintf("key %q does not exist in bucket %q", key, bucket))
		}
		return objectstore.NewError(objectstore.RetCInternalError, err.Error())
	}
	return nil
}
