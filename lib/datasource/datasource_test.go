package datasource

import (
	"errors"
	"testing"
	"time"

	"github.com/emberlab/gasvault/lib/dataset"
	"github.com/emberlab/gasvault/lib/daterange"
	"github.com/emberlab/gasvault/lib/objectstore"
	"github.com/emberlab/gasvault/lib/objectstore/engines/memory"
)

const testBucket = "test"

// hourly builds a dataset of hourly ch4 values starting at the given instant.
func hourly(t *testing.T, start string, values ...float64) *dataset.Dataset {
	t.Helper()
	t0, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", start, err)
	}
	d := dataset.New()
	for i, v := range values {
		d.Times = append(d.Times, t0.Add(time.Duration(i)*time.Hour))
		d.Columns["ch4"] = append(d.Columns["ch4"], v)
	}
	return d
}

func addData(t *testing.T, store objectstore.IObjectStore, d *Datasource, ds *dataset.Dataset, opts AddOptions) {
	t.Helper()
	if err := d.AddData(store, testBucket, ds, "surface", opts); err != nil {
		t.Fatalf("AddData failed: %v", err)
	}
}

// TestAddDataFirstVersion tests the very first write to a fresh datasource
func TestAddDataFirstVersion(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	if d.UUID == "" {
		t.Fatal("New should generate a UUID")
	}

	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2, 3), AddOptions{})

	if d.LatestVersion != "v1" {
		t.Errorf("expected latest version v1, got %q", d.LatestVersion)
	}
	segments := d.Segments("v1")
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %v", segments)
	}
	if d.Metadata["data_type"] != "surface" {
		t.Errorf("expected data_type surface, got %q", d.Metadata["data_type"])
	}
	if d.Metadata["latest_version"] != "v1" {
		t.Errorf("expected latest_version v1, got %q", d.Metadata["latest_version"])
	}
	if d.Metadata["start_date"] != "2012-01-01-00:00:00+00:00" {
		t.Errorf("unexpected start_date %q", d.Metadata["start_date"])
	}

	// The record was committed, so a reload sees the same state
	loaded, err := Load(store, testBucket, d.UUID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := loaded.FetchData(store, testBucket, "")
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	if got.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", got.Len())
	}
}

// TestAddDataRejectsEmptyData tests the empty-input error case
func TestAddDataRejectsEmptyData(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")

	if err := d.AddData(store, testBucket, dataset.New(), "surface", AddOptions{}); err == nil {
		t.Error("AddData with an empty dataset should fail")
	}
	if err := d.AddData(store, testBucket, nil, "surface", AddOptions{}); err == nil {
		t.Error("AddData with a nil dataset should fail")
	}
}

// TestAddDataRejectsUnknownPolicy tests policy validation up front
func TestAddDataRejectsUnknownPolicy(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")

	err := d.AddData(store, testBucket, hourly(t, "2012-01-01T00:00:00Z", 1), "surface", AddOptions{IfExists: "bogus"})
	if err == nil {
		t.Error("AddData with an unknown policy should fail")
	}
}

// TestAddDataAppendsDisjointSegment tests the no-overlap extension path
func TestAddDataAppendsDisjointSegment(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")

	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2, 3), AddOptions{})
	addData(t, store, d, hourly(t, "2012-04-01T00:00:00Z", 4, 5), AddOptions{})

	if d.LatestVersion != "v1" {
		t.Errorf("a disjoint chunk should extend v1, got %q", d.LatestVersion)
	}
	segments := d.Segments("v1")
	if len(segments) != 2 {
		t.Fatalf("expected two segments, got %v", segments)
	}
	// Segments come back chronologically sorted
	r0, _ := daterange.Parse(segments[0])
	r1, _ := daterange.Parse(segments[1])
	if !r0.Start.Before(r1.Start) {
		t.Errorf("segments not chronological: %v", segments)
	}
	if d.Metadata["end_date"] != "2012-04-01-01:00:00+00:00" {
		t.Errorf("unexpected end_date %q", d.Metadata["end_date"])
	}

	got, err := d.FetchData(store, testBucket, "")
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	if got.Len() != 5 {
		t.Errorf("expected 5 rows after fetch, got %d", got.Len())
	}
}

// TestAddDataOverlapAutoFails tests that PolicyAuto rejects overlap and
// leaves the datasource untouched
func TestAddDataOverlapAutoFails(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2, 3), AddOptions{})

	err := d.AddData(store, testBucket, hourly(t, "2012-01-01T01:00:00Z", 99), "surface", AddOptions{})
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected an *OverlapError, got %v", err)
	}
	if len(overlap.Existing) != 1 {
		t.Errorf("expected one conflicting segment, got %v", overlap.Existing)
	}

	// Nothing may have changed, in memory or on disk
	if len(d.Segments("v1")) != 1 {
		t.Errorf("rejected add must not alter the segment list: %v", d.Segments("v1"))
	}
	loaded, err := Load(store, testBucket, d.UUID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := loaded.FetchData(store, testBucket, "")
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	if got.Len() != 3 || got.Columns["ch4"][1] != 2 {
		t.Errorf("stored data changed after a rejected add: %v", got.Columns["ch4"])
	}
}

// TestAddDataPolicyNewOverwrites tests in-place replacement on overlap
func TestAddDataPolicyNewOverwrites(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2, 3), AddOptions{})

	addData(t, store, d, hourly(t, "2012-01-01T01:00:00Z", 20, 30), AddOptions{IfExists: PolicyNew})

	if d.LatestVersion != "v1" {
		t.Errorf("in-place replacement should stay on v1, got %q", d.LatestVersion)
	}
	if len(d.Segments("v1")) != 1 {
		t.Fatalf("expected one segment after replacement, got %v", d.Segments("v1"))
	}
	got, err := d.FetchData(store, testBucket, "")
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	if got.Len() != 2 || got.Columns["ch4"][0] != 20 {
		t.Errorf("expected only the new data, got %v", got.Columns["ch4"])
	}
}

// TestAddDataPolicyNewVersion tests replacement recorded as a new version
func TestAddDataPolicyNewVersion(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2, 3), AddOptions{})

	addData(t, store, d, hourly(t, "2012-01-01T01:00:00Z", 20, 30), AddOptions{IfExists: PolicyNew, NewVersion: true})

	if d.LatestVersion != "v2" {
		t.Fatalf("expected latest version v2, got %q", d.LatestVersion)
	}
	versions := d.Versions()
	if len(versions) != 2 || versions[0] != "v1" || versions[1] != "v2" {
		t.Errorf("unexpected version list %v", versions)
	}

	// The old version stays intact
	old, err := d.FetchData(store, testBucket, "v1")
	if err != nil {
		t.Fatalf("FetchData(v1) failed: %v", err)
	}
	if old.Len() != 3 || old.Columns["ch4"][0] != 1 {
		t.Errorf("v1 data changed: %v", old.Columns["ch4"])
	}

	// The new version holds only the new data
	latest, err := d.FetchData(store, testBucket, "v2")
	if err != nil {
		t.Fatalf("FetchData(v2) failed: %v", err)
	}
	if latest.Len() != 2 || latest.Columns["ch4"][0] != 20 {
		t.Errorf("unexpected v2 data: %v", latest.Columns["ch4"])
	}
}

// TestAddDataCombineSplices tests the splice path: new values win on
// duplicate timestamps, old-only and new-only rows survive
func TestAddDataCombineSplices(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2, 3), AddOptions{})

	addData(t, store, d, hourly(t, "2012-01-01T02:00:00Z", 30, 40), AddOptions{IfExists: PolicyCombine})

	if len(d.Segments("v1")) != 1 {
		t.Fatalf("expected one merged segment, got %v", d.Segments("v1"))
	}
	got, err := d.FetchData(store, testBucket, "")
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	want := []float64{1, 2, 30, 40}
	if got.Len() != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), got.Len())
	}
	for i, v := range want {
		if got.Columns["ch4"][i] != v {
			t.Errorf("row %d: expected %v, got %v", i, v, got.Columns["ch4"][i])
		}
	}
}

// TestAddDataCombineKeepsDisjointSegments tests that only conflicting
// segments take part in the splice
func TestAddDataCombineKeepsDisjointSegments(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2), AddOptions{})
	addData(t, store, d, hourly(t, "2012-04-01T00:00:00Z", 7, 8), AddOptions{})

	// Overlaps only the January segment
	addData(t, store, d, hourly(t, "2012-01-01T01:00:00Z", 20, 30), AddOptions{IfExists: PolicyCombine})

	segments := d.Segments("v1")
	if len(segments) != 2 {
		t.Fatalf("expected two segments, got %v", segments)
	}
	got, err := d.FetchData(store, testBucket, "")
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	want := []float64{1, 20, 30, 7, 8}
	if got.Len() != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), got.Len())
	}
	for i, v := range want {
		if got.Columns["ch4"][i] != v {
			t.Errorf("row %d: expected %v, got %v", i, v, got.Columns["ch4"][i])
		}
	}
}

// TestAppendNewVersionReferencesOldBlocks tests that a new version created
// from a disjoint chunk references the previous version's blocks instead of
// copying them
func TestAppendNewVersionReferencesOldBlocks(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2), AddOptions{})

	oldRange := d.Segments("v1")[0]
	oldKey := d.DataKeys["v1"][oldRange]

	addData(t, store, d, hourly(t, "2012-04-01T00:00:00Z", 3, 4), AddOptions{NewVersion: true})

	if d.LatestVersion != "v2" {
		t.Fatalf("expected latest version v2, got %q", d.LatestVersion)
	}
	if got := d.DataKeys["v2"][oldRange]; got != oldKey {
		t.Errorf("v2 should reference v1's block %q, got %q", oldKey, got)
	}
	if len(d.DataKeys["v2"]) != 2 {
		t.Errorf("v2 should cover both ranges, got %v", d.DataKeys["v2"])
	}
}

// TestVersionsOrder tests the numeric ordering of version labels
func TestVersionsOrder(t *testing.T) {
	d := New("")
	for _, v := range []string{"v10", "v2", "v1"} {
		d.DataKeys[v] = map[string]string{}
	}
	versions := d.Versions()
	if versions[0] != "v1" || versions[1] != "v2" || versions[2] != "v10" {
		t.Errorf("versions should sort numerically, got %v", versions)
	}
}

// TestFetchDataUnknownVersion tests the unknown-version error case
func TestFetchDataUnknownVersion(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1), AddOptions{})

	if _, err := d.FetchData(store, testBucket, "v99"); err == nil {
		t.Error("FetchData with an unknown version should fail")
	}
}

// TestSamplingPeriodPadsRange tests that a known sampling period widens the
// representative range enough to catch a back-to-back overlap
func TestSamplingPeriodPadsRange(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	d.Metadata["sampling_period"] = "3600"

	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2), AddOptions{})

	seg := d.Segments("v1")[0]
	r, err := daterange.Parse(seg)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", seg, err)
	}
	// Last sample at 01:00 plus one hour period minus one second
	want := time.Date(2012, 1, 1, 1, 59, 59, 0, time.UTC)
	if !r.End.Equal(want) {
		t.Errorf("expected padded end %v, got %v", want, r.End)
	}
}

// TestUpdateMetadataProtectsIdentity tests that identity keys never change
func TestUpdateMetadataProtectsIdentity(t *testing.T) {
	d := New("")
	d.Metadata = map[string]string{"site": "bsd", "inlet": "248m", "owner": "old"}

	err := d.UpdateMetadata(map[string]string{"site": "tac", "owner": "new", "network": "decc"}, []string{"site", "inlet"})
	if err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}
	if d.Metadata["site"] != "bsd" {
		t.Errorf("identity key site changed to %q", d.Metadata["site"])
	}
	if d.Metadata["inlet"] != "248m" {
		t.Errorf("identity key inlet changed to %q", d.Metadata["inlet"])
	}
	if d.Metadata["owner"] != "new" {
		t.Errorf("informational key owner should update, got %q", d.Metadata["owner"])
	}
	if d.Metadata["network"] != "decc" {
		t.Errorf("new key network should be added, got %q", d.Metadata["network"])
	}
}

// TestDeleteRemovesEverything tests full removal of record and blocks
func TestDeleteRemovesEverything(t *testing.T) {
	store := memory.NewMemoryStore()
	d := New("")
	addData(t, store, d, hourly(t, "2012-01-01T00:00:00Z", 1, 2), AddOptions{})
	addData(t, store, d, hourly(t, "2012-04-01T00:00:00Z", 3), AddOptions{NewVersion: true})

	var keys []string
	for _, mapping := range d.DataKeys {
		for _, key := range mapping {
			keys = append(keys, key)
		}
	}
	keys = append(keys, RecordKey(d.UUID))

	if err := d.Delete(store, testBucket); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	for _, key := range keys {
		ok, err := store.Exists(testBucket, key)
		if err != nil {
			t.Fatalf("Exists(%q) failed: %v", key, err)
		}
		if ok {
			t.Errorf("key %q should be gone after Delete", key)
		}
	}
}
