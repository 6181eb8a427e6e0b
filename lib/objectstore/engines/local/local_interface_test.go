package local

import (
	"testing"

	"github.com/emberlab/gasvault/lib/objectstore"
	storetesting "github.com/emberlab/gasvault/lib/objectstore/testing"
)

func TestLocalStoreInterface(t *testing.T) {
	storetesting.RunObjectStoreTests(t, "Local", func() objectstore.IObjectStore {
		return NewLocalStore(t.TempDir())
	})
}

func TestPathEscapeRejected(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	bad := []string{"../escape", "a/../../b", "a//b", "."}
	for _, key := range bad {
		if err := store.SetObject("bucket", key, []byte("x")); err == nil {
			t.Errorf("Expected key %q to be rejected", key)
		}
	}
}
