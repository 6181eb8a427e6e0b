package testing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/emberlab/gasvault/lib/objectstore"
)

// StoreFactory is a function that creates a fresh, empty object store.
type StoreFactory func() objectstore.IObjectStore

// RunObjectStoreTests runs a conformance test suite for an IObjectStore
// implementation.
func RunObjectStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Exists", func(t *testing.T) {
			testExists(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("SetIfUnset", func(t *testing.T) {
			testSetIfUnset(t, factory())
		})

		t.Run("JSONRoundTrip", func(t *testing.T) {
			testJSON(t, factory())
		})

		t.Run("InvalidKeys", func(t *testing.T) {
			testInvalidKeys(t, factory())
		})

		t.Run("NestedKeys", func(t *testing.T) {
			testNestedKeys(t, factory())
		})
	})
}

const testBucket = "test-bucket"

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, store objectstore.IObjectStore) {
	key := "datasource/uuid/abc"
	value1 := []byte("value-one")
	value2 := []byte("value-two")

	if err := store.SetObject(testBucket, key, value1); err != nil {
		t.Fatalf("SetObject failed: %v", err)
	}

	got, err := store.GetObject(testBucket, key)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if !bytes.Equal(got, value1) {
		t.Errorf("Expected value %s, got %s", value1, got)
	}

	// Overwrite
	if err := store.SetObject(testBucket, key, value2); err != nil {
		t.Fatalf("SetObject overwrite failed: %v", err)
	}
	got, err = store.GetObject(testBucket, key)
	if err != nil {
		t.Fatalf("GetObject after overwrite failed: %v", err)
	}
	if !bytes.Equal(got, value2) {
		t.Errorf("Expected value %s, got %s", value2, got)
	}

	// Missing key must return a KeyNotFound error
	_, err = store.GetObject(testBucket, "nonexistent")
	if err == nil {
		t.Fatal("Expected an error for a missing key")
	}
	if !objectstore.IsKeyNotFound(err) {
		t.Errorf("Expected a KeyNotFound error, got %v", err)
	}

	// Mutating the returned slice must not corrupt stored data
	got[0] = 'X'
	again, err := store.GetObject(testBucket, key)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if !bytes.Equal(again, value2) {
		t.Errorf("Stored value was corrupted through a returned slice: %s", again)
	}
}

func testExists(t *testing.T, store objectstore.IObjectStore) {
	key := "store/uuid/root"

	ok, err := store.Exists(testBucket, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Expected key to not exist before Set")
	}

	if err := store.SetObject(testBucket, key, []byte("x")); err != nil {
		t.Fatalf("SetObject failed: %v", err)
	}

	ok, err = store.Exists(testBucket, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Expected key to exist after Set")
	}
}

func testDelete(t *testing.T, store objectstore.IObjectStore) {
	key := "data/uuid/abc/v1/range"

	if err := store.SetObject(testBucket, key, []byte("x")); err != nil {
		t.Fatalf("SetObject failed: %v", err)
	}
	if err := store.DeleteObject(testBucket, key); err != nil {
		t.Fatalf("DeleteObject failed: %v", err)
	}

	ok, err := store.Exists(testBucket, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Expected key to not exist after Delete")
	}

	// Deleting a missing key is an error
	err = store.DeleteObject(testBucket, key)
	if err == nil {
		t.Fatal("Expected an error deleting a missing key")
	}
	if !objectstore.IsKeyNotFound(err) {
		t.Errorf("Expected a KeyNotFound error, got %v", err)
	}
}

func testSetIfUnset(t *testing.T, store objectstore.IObjectStore) {
	key := "lock/surface"

	ok, err := store.SetIfUnset(testBucket, key, []byte("owner-1"))
	if err != nil {
		t.Fatalf("SetIfUnset failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected first SetIfUnset to win")
	}

	ok, err = store.SetIfUnset(testBucket, key, []byte("owner-2"))
	if err != nil {
		t.Fatalf("SetIfUnset failed: %v", err)
	}
	if ok {
		t.Fatal("Expected second SetIfUnset to lose")
	}

	got, err := store.GetObject(testBucket, key)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if !bytes.Equal(got, []byte("owner-1")) {
		t.Errorf("Expected first writer's value to survive, got %s", got)
	}
}

func testJSON(t *testing.T, store objectstore.IObjectStore) {
	key := "datasource/uuid/json"
	record := map[string]interface{}{
		"uuid":           "abc-123",
		"latest_version": "v1",
		"metadata":       map[string]interface{}{"site": "bsd", "species": "ch4"},
	}

	if err := objectstore.SetObjectFromJSON(store, testBucket, key, record); err != nil {
		t.Fatalf("SetObjectFromJSON failed: %v", err)
	}

	got, err := objectstore.GetObjectFromJSON(store, testBucket, key)
	if err != nil {
		t.Fatalf("GetObjectFromJSON failed: %v", err)
	}
	if got["uuid"] != "abc-123" || got["latest_version"] != "v1" {
		t.Errorf("Unexpected JSON round-trip result: %v", got)
	}
	meta, ok := got["metadata"].(map[string]interface{})
	if !ok || meta["site"] != "bsd" {
		t.Errorf("Unexpected nested JSON result: %v", got["metadata"])
	}
}

func testInvalidKeys(t *testing.T, store objectstore.IObjectStore) {
	cases := []struct {
		bucket, key string
	}{
		{"", "key"},
		{"bucket", ""},
	}
	for _, c := range cases {
		if err := store.SetObject(c.bucket, c.key, []byte("x")); err == nil {
			t.Errorf("Expected an error for bucket %q key %q", c.bucket, c.key)
		}
	}
}

func testNestedKeys(t *testing.T, store objectstore.IObjectStore) {
	// Keys from the engine's real layout, including one key that is a path
	// prefix of another.
	keys := []string{
		"datasource/uuid/abc",
		"data/uuid/abc/v1/2020-01-01-00:00:00+00:00_2020-03-31-00:00:00+00:00",
		"data/uuid/abc/v1/2020-01-01-00:00:00+00:00_2020-03-31-00:00:00+00:00/extra",
	}
	for i, key := range keys {
		value := []byte(fmt.Sprintf("value-%d", i))
		if err := store.SetObject(testBucket, key, value); err != nil {
			t.Fatalf("SetObject(%q) failed: %v", key, err)
		}
	}
	for i, key := range keys {
		got, err := store.GetObject(testBucket, key)
		if err != nil {
			t.Fatalf("GetObject(%q) failed: %v", key, err)
		}
		want := []byte(fmt.Sprintf("value-%d", i))
		if !bytes.Equal(got, want) {
			t.Errorf("Key %q: expected %s, got %s", key, want, got)
		}
	}
}
