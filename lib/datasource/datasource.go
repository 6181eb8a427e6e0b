package datasource

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emberlab/gasvault/lib/dataset"
	"github.com/emberlab/gasvault/lib/daterange"
	"github.com/emberlab/gasvault/lib/metadata"
	"github.com/emberlab/gasvault/lib/objectstore"
	"github.com/emberlab/gasvault/lib/serializer"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("datasource")

// --------------------------------------------------------------------------
// Policies and Options
// --------------------------------------------------------------------------

// Policy decides how incoming data that overlaps stored data is handled.
type Policy string

const (
	// PolicyAuto fails with an *OverlapError on overlap; the caller must
	// confirm explicitly before history is altered.
	PolicyAuto Policy = "auto"
	// PolicyNew replaces the overlapping data: either as an additional
	// version (NewVersion=true, old version untouched) or by overwriting the
	// active version with only the new data.
	PolicyNew Policy = "new"
	// PolicyCombine splices old and new data along the time axis; new values
	// win on duplicate timestamps.
	PolicyCombine Policy = "combine"
)

// AddOptions configures one AddData call.
type AddOptions struct {
	Sort           bool   // sort incoming data by time first
	DropDuplicates bool   // drop duplicate incoming timestamps (keep-first)
	NewVersion     bool   // record the result as a new version
	IfExists       Policy // overlap resolution policy (default PolicyAuto)
}

// --------------------------------------------------------------------------
// Datasource Type
// --------------------------------------------------------------------------

// Datasource is the versioned container for one logical time series: a
// fixed site/species/inlet (or equivalent) identity, its metadata, and a
// version history of non-overlapping time segments.
//
// DataKeys maps version label -> daterange string -> object store key of the
// stored array block. A version may reference blocks written under an
// earlier version; blocks are only deleted when no surviving version would
// reference them.
type Datasource struct {
	UUID          string                       `json:"uuid"`
	DataType      string                       `json:"data_type"`
	Metadata      map[string]string            `json:"metadata"`
	DataKeys      map[string]map[string]string `json:"data_keys"`
	LatestVersion string                       `json:"latest_version"`
	Timestamp     string                       `json:"timestamp"`

	codec serializer.IDatasetSerializer
}

// New creates a Datasource. An empty id generates a fresh UUID; the UUID is
// immutable afterwards.
func New(id string) *Datasource {
	if id == "" {
		id = uuid.NewString()
	}
	return &Datasource{
		UUID:     id,
		Metadata: make(map[string]string),
		DataKeys: make(map[string]map[string]string),
		codec:    serializer.NewGOBSerializer(),
	}
}

// Load reads a Datasource record from the object store.
func Load(store objectstore.IObjectStore, bucket, id string) (*Datasource, error) {
	d := New(id)
	if err := objectstore.GetJSON(store, bucket, RecordKey(id), d); err != nil {
		return nil, err
	}
	if d.Metadata == nil {
		d.Metadata = make(map[string]string)
	}
	if d.DataKeys == nil {
		d.DataKeys = make(map[string]map[string]string)
	}
	return d, nil
}

// Save persists the Datasource record as JSON.
func (d *Datasource) Save(store objectstore.IObjectStore, bucket string) error {
	return objectstore.SetObjectFromJSON(store, bucket, RecordKey(d.UUID), d)
}

// Delete removes every stored block of every version together with the
// record itself. Blocks referenced by multiple versions are removed once.
func (d *Datasource) Delete(store objectstore.IObjectStore, bucket string) error {
	seen := make(map[string]bool)
	for _, segments := range d.DataKeys {
		for _, key := range segments {
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := store.DeleteObject(bucket, key); err != nil && !objectstore.IsKeyNotFound(err) {
				return err
			}
		}
	}
	return store.DeleteObject(bucket, RecordKey(d.UUID))
}

// --------------------------------------------------------------------------
// Version Bookkeeping
// --------------------------------------------------------------------------

// Versions returns all version labels in creation order (v1, v2, ...).
func (d *Datasource) Versions() []string {
	out := make([]string, 0, len(d.DataKeys))
	for v := range d.DataKeys {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return versionNumber(out[i]) < versionNumber(out[j])
	})
	return out
}

// Segments returns the sorted daterange strings of one version. An unknown
// version yields an empty list.
func (d *Datasource) Segments(version string) []string {
	segments := make([]string, 0, len(d.DataKeys[version]))
	for dr := range d.DataKeys[version] {
		segments = append(segments, dr)
	}
	daterange.SortRanges(segments)
	return segments
}

// nextVersion returns the label following the latest version.
func (d *Datasource) nextVersion() string {
	if d.LatestVersion == "" {
		return "v1"
	}
	return fmt.Sprintf("v%d", versionNumber(d.LatestVersion)+1)
}

func versionNumber(label string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(label, "v"))
	if err != nil {
		return 0
	}
	return n
}

// --------------------------------------------------------------------------
// Versioned Merge
// --------------------------------------------------------------------------

// AddData incorporates a new time-indexed dataset into the Datasource,
// producing a provably non-overlapping set of daterange segments within the
// active version, or a new version according to the caller's policy.
//
// The record itself is not persisted; callers commit with Save once the
// whole transaction succeeded. Array blocks are written before the in-memory
// bookkeeping is updated, so a failed write never leaves a dangling segment
// entry.
func (d *Datasource) AddData(store objectstore.IObjectStore, bucket string, ds *dataset.Dataset, dataType string, opts AddOptions) error {
	if ds == nil || ds.Len() == 0 {
		return fmt.Errorf("datasource %s: cannot add empty data", d.UUID)
	}

	switch opts.IfExists {
	case "", PolicyAuto, PolicyNew, PolicyCombine:
	default:
		return fmt.Errorf("datasource %s: unknown overlap policy %q", d.UUID, opts.IfExists)
	}
	if opts.IfExists == "" {
		opts.IfExists = PolicyAuto
	}

	ds.UTCNormalize()
	if opts.Sort {
		ds.SortByTime()
	}
	if opts.DropDuplicates {
		ds.DropDuplicates()
	}

	rep, err := daterange.Representative(ds.Times, d.samplingPeriod(ds))
	if err != nil {
		return err
	}
	newRange := rep.String()

	if d.LatestVersion == "" {
		key := DataKey(d.UUID, "v1", newRange)
		if err := d.writeBlock(store, bucket, key, ds); err != nil {
			return err
		}
		d.DataKeys["v1"] = map[string]string{newRange: key}
		d.LatestVersion = "v1"
	} else {
		conflicts, err := d.conflictingSegments(rep)
		if err != nil {
			return err
		}

		switch {
		case len(conflicts) == 0:
			if err := d.appendSegment(store, bucket, ds, newRange, opts.NewVersion); err != nil {
				return err
			}
		case opts.IfExists == PolicyAuto:
			return &OverlapError{Existing: conflicts, New: newRange}
		case opts.IfExists == PolicyNew:
			if err := d.replaceWith(store, bucket, ds, newRange, opts.NewVersion); err != nil {
				return err
			}
		case opts.IfExists == PolicyCombine:
			if err := d.combine(store, bucket, ds, newRange, conflicts, opts.NewVersion); err != nil {
				return err
			}
		}
	}

	d.DataType = dataType
	d.refreshMetadata(dataType)

	log.Debugf("datasource %s: version %s now covers %s to %s",
		d.UUID, d.LatestVersion, d.Metadata["start_date"], d.Metadata["end_date"])
	return d.Save(store, bucket)
}

// samplingPeriod resolves the sampling period from stored metadata or the
// incoming dataset attributes ("sampling_period" preferred, "time_period"
// accepted).
func (d *Datasource) samplingPeriod(ds *dataset.Dataset) time.Duration {
	for _, source := range []map[string]string{d.Metadata, ds.Attrs} {
		for _, key := range []string{"sampling_period", "time_period"} {
			if raw, ok := source[key]; ok {
				if p, err := daterange.ParsePeriod(raw); err == nil && p > 0 {
					return p
				}
			}
		}
	}
	return 0
}

// conflictingSegments returns the active version's daterange strings that
// overlap the incoming range, in chronological order.
func (d *Datasource) conflictingSegments(rep daterange.Range) ([]string, error) {
	var conflicts []string
	for _, seg := range d.Segments(d.LatestVersion) {
		r, err := daterange.Parse(seg)
		if err != nil {
			return nil, fmt.Errorf("datasource %s: corrupt stored daterange %q: %w", d.UUID, seg, err)
		}
		if rep.Overlaps(r) {
			conflicts = append(conflicts, seg)
		}
	}
	return conflicts, nil
}

// appendSegment handles the no-overlap case: the new chunk joins the active
// version, or a new version that references all prior segments.
func (d *Datasource) appendSegment(store objectstore.IObjectStore, bucket string, ds *dataset.Dataset, newRange string, newVersion bool) error {
	version := d.LatestVersion
	mapping := d.DataKeys[version]
	if newVersion {
		version = d.nextVersion()
		mapping = copyMapping(d.DataKeys[d.LatestVersion])
	}

	key := DataKey(d.UUID, version, newRange)
	if err := d.writeBlock(store, bucket, key, ds); err != nil {
		return err
	}
	mapping[newRange] = key
	d.DataKeys[version] = mapping
	d.LatestVersion = version
	return nil
}

// replaceWith handles PolicyNew on overlap: the new data becomes an
// additional version on its own, or overwrites the active version in place.
func (d *Datasource) replaceWith(store objectstore.IObjectStore, bucket string, ds *dataset.Dataset, newRange string, newVersion bool) error {
	if newVersion {
		version := d.nextVersion()
		key := DataKey(d.UUID, version, newRange)
		if err := d.writeBlock(store, bucket, key, ds); err != nil {
			return err
		}
		d.DataKeys[version] = map[string]string{newRange: key}
		d.LatestVersion = version
		return nil
	}

	version := d.LatestVersion
	key := DataKey(d.UUID, version, newRange)
	if err := d.writeBlock(store, bucket, key, ds); err != nil {
		return err
	}
	d.deleteOwnedBlocks(store, bucket, version, d.Segments(version), key)
	d.DataKeys[version] = map[string]string{newRange: key}
	return nil
}

// combine handles PolicyCombine: conflicting stored segments and the new
// chunk are spliced along the time axis (new values win on duplicate
// timestamps) into one merged segment; non-conflicting segments survive
// untouched.
func (d *Datasource) combine(store objectstore.IObjectStore, bucket string, ds *dataset.Dataset, newRange string, conflicts []string, newVersion bool) error {
	active := d.DataKeys[d.LatestVersion]

	merged := ds
	for _, seg := range conflicts {
		block, err := d.readBlock(store, bucket, active[seg])
		if err != nil {
			return err
		}
		spliced, err := dataset.Concat(block, merged, true)
		if err != nil {
			return err
		}
		merged = spliced
	}

	start, end, err := daterange.Bounds(append(append([]string{}, conflicts...), newRange))
	if err != nil {
		return err
	}
	mergedRange := daterange.Create(start, end)

	version := d.LatestVersion
	mapping := copyMapping(active)
	if newVersion {
		version = d.nextVersion()
	}

	key := DataKey(d.UUID, version, mergedRange)
	if err := d.writeBlock(store, bucket, key, merged); err != nil {
		return err
	}

	for _, seg := range conflicts {
		delete(mapping, seg)
	}
	mapping[mergedRange] = key

	if !newVersion {
		// In-place splice: the replaced blocks of the active version are no
		// longer referenced anywhere.
		d.deleteOwnedBlocks(store, bucket, version, conflicts, key)
	}

	d.DataKeys[version] = mapping
	d.LatestVersion = version
	return nil
}

// deleteOwnedBlocks removes the blocks behind the given segments of one
// version, but only blocks stored under that version's own key prefix.
// Blocks referenced from older versions stay. keep is never deleted.
func (d *Datasource) deleteOwnedBlocks(store objectstore.IObjectStore, bucket, version string, segments []string, keep string) {
	mapping := d.DataKeys[version]
	referenced := d.referenceCounts()
	for _, seg := range segments {
		key, ok := mapping[seg]
		if !ok || key == keep {
			continue
		}
		if key != DataKey(d.UUID, version, seg) {
			continue
		}
		if referenced[key] > 1 {
			continue
		}
		if err := store.DeleteObject(bucket, key); err != nil && !objectstore.IsKeyNotFound(err) {
			log.Warningf("datasource %s: could not delete replaced block %s: %v", d.UUID, key, err)
		}
	}
}

// referenceCounts counts how many versions reference each block key.
func (d *Datasource) referenceCounts() map[string]int {
	counts := make(map[string]int)
	for _, segments := range d.DataKeys {
		for _, key := range segments {
			counts[key]++
		}
	}
	return counts
}

// --------------------------------------------------------------------------
// Block I/O
// --------------------------------------------------------------------------

func (d *Datasource) writeBlock(store objectstore.IObjectStore, bucket, key string, block *dataset.Dataset) error {
	data, err := d.codec.Serialize(block)
	if err != nil {
		return fmt.Errorf("datasource %s: cannot serialize block %s: %w", d.UUID, key, err)
	}
	return store.SetObject(bucket, key, data)
}

func (d *Datasource) readBlock(store objectstore.IObjectStore, bucket, key string) (*dataset.Dataset, error) {
	data, err := store.GetObject(bucket, key)
	if err != nil {
		return nil, err
	}
	block := dataset.New()
	if err := d.codec.Deserialize(data, block); err != nil {
		return nil, fmt.Errorf("datasource %s: cannot deserialize block %s: %w", d.UUID, key, err)
	}
	return block, nil
}

// FetchData loads a version's blocks and splices them back into one
// chronological dataset. An empty version selects the latest.
func (d *Datasource) FetchData(store objectstore.IObjectStore, bucket, version string) (*dataset.Dataset, error) {
	if version == "" {
		version = d.LatestVersion
	}
	mapping, ok := d.DataKeys[version]
	if !ok {
		return nil, fmt.Errorf("datasource %s: unknown version %q", d.UUID, version)
	}

	out := dataset.New()
	for _, seg := range d.Segments(version) {
		block, err := d.readBlock(store, bucket, mapping[seg])
		if err != nil {
			return nil, err
		}
		spliced, err := dataset.Concat(out, block, false)
		if err != nil {
			return nil, err
		}
		out = spliced
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Metadata Upkeep
// --------------------------------------------------------------------------

// refreshMetadata recomputes start_date/end_date from the active version's
// sorted segment list and stamps the version pointer and timestamp. The
// bounds always reflect the latest version only.
func (d *Datasource) refreshMetadata(dataType string) {
	segments := d.Segments(d.LatestVersion)
	if start, end, err := daterange.Bounds(segments); err == nil {
		d.Metadata["start_date"] = start.Format(daterange.TimestampLayout)
		d.Metadata["end_date"] = end.Format(daterange.TimestampLayout)
	}
	d.Metadata["data_type"] = dataType
	d.Metadata["latest_version"] = d.LatestVersion
	d.Timestamp = time.Now().UTC().Format(time.RFC3339)
}

// UpdateMetadata merges incoming metadata into the stored metadata. Incoming
// values win on conflicts, except for the identity keys, which never change
// after creation.
func (d *Datasource) UpdateMetadata(incoming map[string]string, identityKeys []string) error {
	merged, err := metadata.Merge(d.Metadata, incoming, metadata.OnConflict(metadata.ConflictRight))
	if err != nil {
		return err
	}
	stored := metadata.Normalize(d.Metadata)
	for _, k := range identityKeys {
		k = strings.ToLower(k)
		if v, ok := stored[k]; ok {
			merged[k] = v
		}
	}
	d.Metadata = merged
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func copyMapping(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
