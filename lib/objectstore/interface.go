package objectstore

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// StoreFactory is a function type that creates a new object store. It
// abstracts engine construction from the components built on top of the
// store.
type StoreFactory func() IObjectStore

// IObjectStore is the generic interface for the blob + JSON key-value store
// the engine persists into. Keys are namespaced by bucket; each per-key
// operation is atomic. Write operations return only an error (nil on
// success), read operations return the requested data along with an error.
type IObjectStore interface {
	// Exists reports whether a key is present in the bucket.
	Exists(bucket, key string) (bool, error)
	// GetObject returns the raw bytes stored under a key.
	// A missing key is an error (RetCKeyNotFound).
	GetObject(bucket, key string) ([]byte, error)
	// SetObject inserts or overwrites the raw bytes stored under a key.
	SetObject(bucket, key string, data []byte) error
	// SetIfUnset atomically inserts a value only if the key does not exist.
	// It reports whether the write happened. Lock management relies on this
	// being a true compare-and-set on the engine.
	SetIfUnset(bucket, key string, data []byte) (bool, error)
	// DeleteObject removes a key. Deleting a missing key is an error.
	DeleteObject(bucket, key string) error
}

// --------------------------------------------------------------------------
// JSON Helpers
// --------------------------------------------------------------------------

// GetObjectFromJSON reads the JSON document stored under a key into a
// generic mapping.
func GetObjectFromJSON(store IObjectStore, bucket, key string) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := GetJSON(store, bucket, key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetJSON reads the JSON document stored under a key into v.
func GetJSON(store IObjectStore, bucket, key string, v interface{}) error {
	data, err := store.GetObject(bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewError(RetCInternalError, fmt.Sprintf("cannot decode JSON at key %q: %v", key, err))
	}
	return nil
}

// SetObjectFromJSON stores v as a JSON document under a key.
func SetObjectFromJSON(store IObjectStore, bucket, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return NewError(RetCInternalError, fmt.Sprintf("cannot encode JSON for key %q: %v", key, err))
	}
	return store.SetObject(bucket, key, data)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCKeyNotFound:
		errorCode = "KeyNotFound"
	case RetCInvalidKey:
		errorCode = "InvalidKey"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("ObjectStoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new object store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// IsKeyNotFound reports whether err is an object store error for a missing
// key.
func IsKeyNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == RetCKeyNotFound
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                // 1: Operation failed due to an internal error.
	RetCKeyNotFound                  // 2: The requested key does not exist.
	RetCInvalidKey                   // 3: The key or bucket name is not usable.
)
