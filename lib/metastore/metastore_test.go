package metastore

import (
	"errors"
	"testing"

	"github.com/emberlab/gasvault/lib/objectstore/engines/memory"
)

const testBucket = "test"

var requiredKeys = []string{"site", "species", "inlet"}

func indexWith(t *testing.T) *MetaStore {
	t.Helper()
	ms := &MetaStore{DataType: "surface"}
	ms.Register("uuid-1", map[string]string{"site": "bsd", "species": "ch4", "inlet": "248m", "network": "decc"}, requiredKeys, []string{"network"})
	ms.Register("uuid-2", map[string]string{"site": "bsd", "species": "co2", "inlet": "248m"}, requiredKeys, nil)
	ms.Register("uuid-3", map[string]string{"site": "tac", "species": "ch4", "inlet": "100m"}, requiredKeys, nil)
	return ms
}

// TestLoadEmptyIndex tests that a missing index document yields an empty
// index instead of an error
func TestLoadEmptyIndex(t *testing.T) {
	ms, err := Load(memory.NewMemoryStore(), testBucket, "surface")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ms.DataType != "surface" || len(ms.Records) != 0 {
		t.Errorf("expected an empty surface index, got %+v", ms)
	}
}

// TestSaveLoadRoundTrip tests index persistence
func TestSaveLoadRoundTrip(t *testing.T) {
	store := memory.NewMemoryStore()
	ms := indexWith(t)
	if err := ms.Save(store, testBucket); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(store, testBucket, "surface")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(loaded.Records))
	}
	uuid, err := loaded.Lookup(map[string]string{"site": "bsd", "species": "ch4", "inlet": "248m"}, requiredKeys, 0)
	if err != nil || uuid != "uuid-1" {
		t.Errorf("Lookup after reload = (%q, %v), want (uuid-1, nil)", uuid, err)
	}
}

// TestLookupSingleMatch tests the exact, case-insensitive match
func TestLookupSingleMatch(t *testing.T) {
	ms := indexWith(t)

	uuid, err := ms.Lookup(map[string]string{"Site": "BSD", "Species": "CH4", "Inlet": "248M"}, requiredKeys, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if uuid != "uuid-1" {
		t.Errorf("expected uuid-1, got %q", uuid)
	}
}

// TestLookupNoMatch tests the create-new signal
func TestLookupNoMatch(t *testing.T) {
	ms := indexWith(t)

	uuid, err := ms.Lookup(map[string]string{"site": "mhd", "species": "ch4", "inlet": "10m"}, requiredKeys, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if uuid != "" {
		t.Errorf("no match should return an empty UUID, got %q", uuid)
	}
}

// TestLookupAmbiguous tests the multi-match failure
func TestLookupAmbiguous(t *testing.T) {
	ms := indexWith(t)

	// Only two required keys offered, matching both bsd datasources
	_, err := ms.Lookup(map[string]string{"site": "bsd", "inlet": "248m"}, requiredKeys, 2)
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected a *LookupError, got %v", err)
	}
	if len(lookupErr.Matches) != 2 {
		t.Errorf("expected 2 ambiguous matches, got %v", lookupErr.Matches)
	}
}

// TestLookupMissingKeys tests the required-key guard
func TestLookupMissingKeys(t *testing.T) {
	ms := indexWith(t)

	_, err := ms.Lookup(map[string]string{"site": "bsd"}, requiredKeys, 0)
	var missingErr *MissingKeysError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected a *MissingKeysError, got %v", err)
	}
	if len(missingErr.Missing) != 2 {
		t.Errorf("expected species and inlet to be reported, got %v", missingErr.Missing)
	}
}

// TestLookupMinKeys tests sparse lookups with a lowered key minimum
func TestLookupMinKeys(t *testing.T) {
	ms := indexWith(t)

	// species+site uniquely identifies the tac datasource
	uuid, err := ms.Lookup(map[string]string{"site": "tac", "species": "ch4"}, requiredKeys, 2)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if uuid != "uuid-3" {
		t.Errorf("expected uuid-3, got %q", uuid)
	}

	// A minimum above len(required) falls back to all keys
	if _, err := ms.Lookup(map[string]string{"site": "tac", "species": "ch4"}, requiredKeys, 99); err == nil {
		t.Error("an oversized minimum should require all keys")
	}
}

// TestSearch tests the read-only subset query
func TestSearch(t *testing.T) {
	ms := indexWith(t)

	got := ms.Search(map[string]string{"site": "bsd"})
	if len(got) != 2 {
		t.Errorf("expected 2 bsd records, got %d", len(got))
	}

	got = ms.Search(map[string]string{"site": "bsd", "species": "co2"})
	if len(got) != 1 || got[0].UUID != "uuid-2" {
		t.Errorf("unexpected search result %v", got)
	}

	// An empty query matches everything
	if got := ms.Search(nil); len(got) != 3 {
		t.Errorf("empty query should match all records, got %d", len(got))
	}

	if got := ms.Search(map[string]string{"site": "nowhere"}); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

// TestRegisterUpdatesInPlace tests re-registration of a known UUID
func TestRegisterUpdatesInPlace(t *testing.T) {
	ms := indexWith(t)

	ms.Register("uuid-1", map[string]string{"site": "bsd", "species": "ch4", "inlet": "248m", "network": "ukmo"}, requiredKeys, []string{"network"})
	if len(ms.Records) != 3 {
		t.Fatalf("re-registration must not add a record, got %d", len(ms.Records))
	}
	got := ms.Search(map[string]string{"network": "ukmo"})
	if len(got) != 1 || got[0].UUID != "uuid-1" {
		t.Errorf("updated entry not found: %v", got)
	}
}

// TestRegisterKeepsOnlyIdentitySubset tests that informational metadata is
// not indexed
func TestRegisterKeepsOnlyIdentitySubset(t *testing.T) {
	ms := &MetaStore{DataType: "surface"}
	ms.Register("uuid-9", map[string]string{
		"site": "bsd", "species": "ch4", "inlet": "248m",
		"comment": "calibrated 2012-05",
	}, requiredKeys, nil)

	if _, ok := ms.Records[0].Metadata["comment"]; ok {
		t.Errorf("informational keys must not be indexed: %v", ms.Records[0].Metadata)
	}
}

// TestDeregister tests removal and its idempotence
func TestDeregister(t *testing.T) {
	ms := indexWith(t)

	ms.Deregister("uuid-2")
	if len(ms.Records) != 2 {
		t.Fatalf("expected 2 records after deregister, got %d", len(ms.Records))
	}
	uuid, err := ms.Lookup(map[string]string{"site": "bsd", "species": "co2", "inlet": "248m"}, requiredKeys, 0)
	if err != nil || uuid != "" {
		t.Errorf("deregistered datasource still found: (%q, %v)", uuid, err)
	}

	// Removing an unknown UUID is a no-op
	ms.Deregister("uuid-2")
	if len(ms.Records) != 2 {
		t.Errorf("deregistering twice should be a no-op, got %d records", len(ms.Records))
	}
}
