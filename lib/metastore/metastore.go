package metastore

import (
	"fmt"
	"strings"

	"github.com/emberlab/gasvault/lib/metadata"
	"github.com/emberlab/gasvault/lib/objectstore"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("metastore")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Record is one index entry: the canonical identity metadata of a Datasource
// and its UUID. All keys and values are stored lower-cased.
type Record struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata"`
}

// MetaStore maps a canonical subset of metadata fields to Datasource UUIDs
// and supports exact multi-field search. One MetaStore exists per data type;
// it is persisted as a single JSON document.
type MetaStore struct {
	DataType string   `json:"data_type"`
	Records  []Record `json:"records"`
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// LookupError is returned when more than one Datasource matches a
// required-key search. The caller must supply more specific metadata; the
// engine never guesses.
type LookupError struct {
	Matches []string // UUIDs of all matching Datasources
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("ambiguous lookup: %d datasources match the given metadata (%s)",
		len(e.Matches), strings.Join(e.Matches, ", "))
}

// MissingKeysError is returned when fewer than the minimum number of
// required keys are present in the metadata offered for lookup.
type MissingKeysError struct {
	Missing []string
}

// Error implements the error interface.
func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("metadata is missing required lookup keys: %s", strings.Join(e.Missing, ", "))
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// storageKey is the object store key of the index document for a data type.
func storageKey(dataType string) string {
	return fmt.Sprintf("metastore/%s", dataType)
}

// Load reads the index for a data type, returning an empty index if none has
// been stored yet.
func Load(store objectstore.IObjectStore, bucket, dataType string) (*MetaStore, error) {
	ms := &MetaStore{DataType: dataType}
	err := objectstore.GetJSON(store, bucket, storageKey(dataType), ms)
	if err != nil {
		if objectstore.IsKeyNotFound(err) {
			return ms, nil
		}
		return nil, err
	}
	return ms, nil
}

// Save persists the index document.
func (ms *MetaStore) Save(store objectstore.IObjectStore, bucket string) error {
	return objectstore.SetObjectFromJSON(store, bucket, storageKey(ms.DataType), ms)
}

// --------------------------------------------------------------------------
// Lookup and Search
// --------------------------------------------------------------------------

// Lookup resolves metadata to at most one Datasource UUID using the required
// keys (case-insensitively). minKeys below len(required) allows sparser
// metadata; zero means all required keys must be present.
//
// Returns "" when nothing matches (the caller should create a new
// Datasource), the UUID on exactly one match, a *MissingKeysError when too
// few required keys are present, and a *LookupError when the match is
// ambiguous. Lookup never mutates the index.
func (ms *MetaStore) Lookup(meta map[string]string, required []string, minKeys int) (string, error) {
	if minKeys <= 0 || minKeys > len(required) {
		minKeys = len(required)
	}

	norm := metadata.Normalize(meta)

	query := make(map[string]string, len(required))
	var missing []string
	for _, k := range required {
		k = strings.ToLower(k)
		if v, ok := norm[k]; ok {
			query[k] = v
		} else {
			missing = append(missing, k)
		}
	}
	if len(query) < minKeys {
		return "", &MissingKeysError{Missing: missing}
	}

	matches := ms.match(query)
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0].UUID, nil
	default:
		uuids := make([]string, len(matches))
		for i, r := range matches {
			uuids[i] = r.UUID
		}
		return "", &LookupError{Matches: uuids}
	}
}

// Search returns every record whose metadata contains all of the given
// key/value pairs (exact, case-insensitive). It is read-only and serves the
// query surface; an empty query matches everything.
func (ms *MetaStore) Search(partial map[string]string) []Record {
	return ms.match(metadata.Normalize(partial))
}

// match returns records containing every query pair.
func (ms *MetaStore) match(query map[string]string) []Record {
	var out []Record
	for _, rec := range ms.Records {
		matched := true
		for k, v := range query {
			if rec.Metadata[k] != v {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, rec)
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// Register adds or updates the index entry for a Datasource. The stored
// metadata is the lower-cased identity subset: the required keys plus any
// optional keys present in the incoming metadata.
func (ms *MetaStore) Register(uuid string, meta map[string]string, required, optional []string) {
	norm := metadata.Normalize(meta)
	identity := make(map[string]string, len(required)+len(optional))
	for _, k := range append(append([]string{}, required...), optional...) {
		k = strings.ToLower(k)
		if v, ok := norm[k]; ok {
			identity[k] = v
		}
	}

	for i, rec := range ms.Records {
		if rec.UUID == uuid {
			ms.Records[i].Metadata = identity
			return
		}
	}
	ms.Records = append(ms.Records, Record{UUID: uuid, Metadata: identity})
	log.Debugf("registered datasource %s in %s index", uuid, ms.DataType)
}

// Deregister removes a Datasource from the index. Removing an unknown UUID
// is a no-op, so deletion stays idempotent and no orphaned entries survive.
func (ms *MetaStore) Deregister(uuid string) {
	for i, rec := range ms.Records {
		if rec.UUID == uuid {
			ms.Records = append(ms.Records[:i], ms.Records[i+1:]...)
			return
		}
	}
}
