package store

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/emberlab/gasvault/lib/dataset"
	"github.com/emberlab/gasvault/lib/datasource"
	"github.com/emberlab/gasvault/lib/lockmgr"
	"github.com/emberlab/gasvault/lib/metadata"
	"github.com/emberlab/gasvault/lib/metastore"
	"github.com/emberlab/gasvault/lib/objectstore"
	"github.com/emberlab/gasvault/lib/parser"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// --------------------------------------------------------------------------
// Store Type
// --------------------------------------------------------------------------

// Store is the top-level per-data-type entry point: it coordinates file
// hash dedup, parser dispatch, schema validation, metadata assembly and the
// delegation to Datasource lookup, creation and versioned merge.
type Store struct {
	def     Definition
	objects objectstore.IObjectStore
	bucket  string
	locker  lockmgr.ILockManager

	filesIngested *metrics.Counter
	filesSkipped  *metrics.Counter
	dsCreated     *metrics.Counter
	overlapErrors *metrics.Counter
}

// NewStore opens the store of a registered data type on the given object
// store and bucket.
func NewStore(dataType string, objects objectstore.IObjectStore, bucket string) (*Store, error) {
	def, err := Lookup(dataType)
	if err != nil {
		return nil, err
	}
	return &Store{
		def:     def,
		objects: objects,
		bucket:  bucket,
		locker:  lockmgr.NewLockManager(objects),

		filesIngested: metrics.GetOrCreateCounter(fmt.Sprintf(`gasvault_files_ingested_total{data_type=%q}`, dataType)),
		filesSkipped:  metrics.GetOrCreateCounter(fmt.Sprintf(`gasvault_files_skipped_total{data_type=%q}`, dataType)),
		dsCreated:     metrics.GetOrCreateCounter(fmt.Sprintf(`gasvault_datasources_created_total{data_type=%q}`, dataType)),
		overlapErrors: metrics.GetOrCreateCounter(fmt.Sprintf(`gasvault_overlap_rejections_total{data_type=%q}`, dataType)),
	}, nil
}

// DataType returns the store's data type name.
func (s *Store) DataType() string {
	return s.def.DataType
}

// lockKey is the object store key of the coarse store-level lock.
func (s *Store) lockKey() string {
	return fmt.Sprintf("lock/%s", s.def.Root)
}

// rootKey is the object store key of the store's root record.
func (s *Store) rootKey() string {
	return fmt.Sprintf("%s/uuid/%s", s.def.Root, s.def.UUID)
}

// --------------------------------------------------------------------------
// Root Record
// --------------------------------------------------------------------------

// rootRecord is the persistent root container: the Datasource UUIDs this
// store owns and the fingerprints of previously ingested files.
type rootRecord struct {
	UUID        string            `json:"uuid"`
	DataType    string            `json:"data_type"`
	Datasources []string          `json:"datasource_uuids"`
	FileHashes  map[string]string `json:"file_hashes"`
}

func (s *Store) loadRoot() (*rootRecord, error) {
	root := &rootRecord{}
	err := objectstore.GetJSON(s.objects, s.bucket, s.rootKey(), root)
	if err != nil {
		if objectstore.IsKeyNotFound(err) {
			return &rootRecord{
				UUID:       s.def.UUID,
				DataType:   s.def.DataType,
				FileHashes: make(map[string]string),
			}, nil
		}
		return nil, err
	}
	if root.FileHashes == nil {
		root.FileHashes = make(map[string]string)
	}
	return root, nil
}

func (s *Store) saveRoot(root *rootRecord) error {
	return objectstore.SetObjectFromJSON(s.objects, s.bucket, s.rootKey(), root)
}

func (r *rootRecord) owns(uuid string) bool {
	for _, id := range r.Datasources {
		if id == uuid {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Ingestion API
// --------------------------------------------------------------------------

// IngestOptions configures one ReadFile / AssignData transaction.
type IngestOptions struct {
	// IfExists is the overlap resolution policy (default PolicyAuto).
	IfExists datasource.Policy
	// NewVersion records results as a new version instead of extending or
	// overwriting the active one.
	NewVersion bool
	// Sort sorts incoming data by time before the merge.
	Sort bool
	// DropDuplicates drops duplicate incoming timestamps (keep-first).
	DropDuplicates bool
	// Force reprocesses a file whose hash has been seen before.
	Force bool
	// Info carries caller metadata overrides, merged over parser output
	// with the required identity keys protected.
	Info map[string]string
	// Kwargs carries type-specific parser hints.
	Kwargs map[string]string
}

// AssignUnit is one parsed (data, metadata) pair offered for assignment.
type AssignUnit struct {
	Label    string
	Data     *dataset.Dataset
	Metadata map[string]string
}

// IngestResult reports the outcome for one assigned unit.
type IngestResult struct {
	Label    string            `json:"label"`
	UUID     string            `json:"uuid"`
	New      bool              `json:"new"`
	Identity map[string]string `json:"identity"`
}

// ReadFile ingests one file: dedup by content hash, parser dispatch, schema
// validation, metadata assembly and the versioned merge, all while holding
// the store lock. A file whose hash has been seen is a silent no-op (empty
// result) unless Force is set; the hash is recorded only after a fully
// successful run, so a failed file is reprocessed on retry.
func (s *Store) ReadFile(path, sourceFormat string, opts IngestOptions) ([]IngestResult, error) {
	parse, err := parser.Get(sourceFormat)
	if err != nil {
		return nil, err
	}

	var results []IngestResult
	err = s.locker.WithLock(s.bucket, s.lockKey(), func() error {
		root, err := s.loadRoot()
		if err != nil {
			return err
		}

		fileHash, err := hashFile(path)
		if err != nil {
			return err
		}
		if seen, ok := root.FileHashes[fileHash]; ok && !opts.Force {
			log.Infof("file %s already ingested as %s, skipping", path, seen)
			s.filesSkipped.Inc()
			return nil
		}

		parsed, err := parse(path, opts.Kwargs)
		if err != nil {
			return fmt.Errorf("parsing %s as %q: %w", path, sourceFormat, err)
		}

		units, err := s.assembleUnits(parsed, opts.Info)
		if err != nil {
			return fmt.Errorf("file %s: %w", path, err)
		}

		results, err = s.assignData(root, units, opts)
		if err != nil {
			return err
		}

		root.FileHashes[fileHash] = path
		if err := s.saveRoot(root); err != nil {
			return err
		}
		s.filesIngested.Inc()
		return nil
	})
	if err != nil {
		return results, err
	}
	return results, nil
}

// AssignData is the transactional unit: for each (data, metadata) pair it
// looks up or creates a Datasource and commits the versioned merge, holding
// the store lock for the whole call. Items are processed in list order and
// committed independently: a failure on the N-th item does not roll back
// items 1..N-1, since items may represent independent species or sources.
func (s *Store) AssignData(units []AssignUnit, opts IngestOptions) ([]IngestResult, error) {
	var results []IngestResult
	err := s.locker.WithLock(s.bucket, s.lockKey(), func() error {
		root, err := s.loadRoot()
		if err != nil {
			return err
		}
		results, err = s.assignData(root, units, opts)
		if err != nil {
			return err
		}
		return s.saveRoot(root)
	})
	return results, err
}

// assembleUnits validates every parsed unit against the schema and merges
// its metadata with the caller overrides. It runs before any store mutation,
// so a schema-invalid file aborts with nothing written.
func (s *Store) assembleUnits(parsed map[string]parser.ParsedUnit, info map[string]string) ([]AssignUnit, error) {
	labels := make([]string, 0, len(parsed))
	for label := range parsed {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	units := make([]AssignUnit, 0, len(labels))
	for _, label := range labels {
		unit := parsed[label]

		meta, err := s.assembleMetadata(unit.Metadata, info)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", label, err)
		}

		if err := s.def.SchemaFor(meta).Validate(unit.Data); err != nil {
			return nil, fmt.Errorf("unit %q: %w", label, err)
		}

		units = append(units, AssignUnit{Label: label, Data: unit.Data, Metadata: meta})
	}
	return units, nil
}

// assembleMetadata merges caller overrides over parser metadata. Overrides
// win on informational keys; the required identity keys stay as the parser
// reported them, so free-form info can never reassign a series.
func (s *Store) assembleMetadata(parserMeta, info map[string]string) (map[string]string, error) {
	merged, err := metadata.Merge(parserMeta, info, metadata.OnConflict(metadata.ConflictRight))
	if err != nil {
		return nil, err
	}
	norm := metadata.Normalize(parserMeta)
	for _, k := range s.def.RequiredKeys {
		k = strings.ToLower(k)
		if v, ok := norm[k]; ok {
			merged[k] = v
		}
	}
	return merged, nil
}

// assignData commits units in list order while the caller holds the store
// lock. Each committed item is durable before the next is attempted.
func (s *Store) assignData(root *rootRecord, units []AssignUnit, opts IngestOptions) ([]IngestResult, error) {
	ms, err := metastore.Load(s.objects, s.bucket, s.def.DataType)
	if err != nil {
		return nil, err
	}

	addOpts := datasource.AddOptions{
		Sort:           opts.Sort,
		DropDuplicates: opts.DropDuplicates,
		NewVersion:     opts.NewVersion,
		IfExists:       opts.IfExists,
	}

	var results []IngestResult
	for _, unit := range units {
		result, err := s.assignUnit(root, ms, unit, addOpts)
		if err != nil {
			var overlap *datasource.OverlapError
			if errors.As(err, &overlap) {
				s.overlapErrors.Inc()
			}
			return results, fmt.Errorf("unit %q: %w", unit.Label, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// assignUnit resolves one unit to a Datasource and commits the merge.
func (s *Store) assignUnit(root *rootRecord, ms *metastore.MetaStore, unit AssignUnit, addOpts datasource.AddOptions) (IngestResult, error) {
	uuid, err := ms.Lookup(unit.Metadata, s.def.RequiredKeys, 0)
	if err != nil {
		return IngestResult{}, err
	}

	var d *datasource.Datasource
	created := uuid == ""
	if created {
		d = datasource.New("")
		d.Metadata = metadata.Normalize(unit.Metadata)
	} else {
		d, err = datasource.Load(s.objects, s.bucket, uuid)
		if err != nil {
			return IngestResult{}, err
		}
		if err := d.UpdateMetadata(unit.Metadata, s.def.RequiredKeys); err != nil {
			return IngestResult{}, err
		}
	}

	if err := d.AddData(s.objects, s.bucket, unit.Data, s.def.DataType, addOpts); err != nil {
		return IngestResult{}, err
	}

	// The unit is durable; now make it findable. Registration order means a
	// crash between the two leaves a datasource that a retry will recreate
	// rather than a dangling index entry.
	ms.Register(d.UUID, d.Metadata, s.def.RequiredKeys, s.def.OptionalKeys)
	if err := ms.Save(s.objects, s.bucket); err != nil {
		return IngestResult{}, err
	}
	if created {
		// Root membership is persisted per unit, so a later unit's failure
		// cannot leave a committed datasource outside the root set.
		root.Datasources = append(root.Datasources, d.UUID)
		if err := s.saveRoot(root); err != nil {
			return IngestResult{}, err
		}
		s.dsCreated.Inc()
		log.Infof("created datasource %s for %v", d.UUID, identitySubset(d.Metadata, s.def.RequiredKeys))
	}

	return IngestResult{
		Label:    unit.Label,
		UUID:     d.UUID,
		New:      created,
		Identity: identitySubset(d.Metadata, s.def.RequiredKeys),
	}, nil
}

// --------------------------------------------------------------------------
// Query Surface
// --------------------------------------------------------------------------

// Search returns the UUID and identity metadata of every Datasource whose
// index entry contains all given key/value pairs. It never touches stored
// arrays and never mutates the index.
func (s *Store) Search(partial map[string]string) ([]metastore.Record, error) {
	ms, err := metastore.Load(s.objects, s.bucket, s.def.DataType)
	if err != nil {
		return nil, err
	}
	return ms.Search(partial), nil
}

// Datasource loads one Datasource record owned by this store.
func (s *Store) Datasource(uuid string) (*datasource.Datasource, error) {
	return datasource.Load(s.objects, s.bucket, uuid)
}

// FetchData loads a datasource's stored arrays, spliced back into one
// chronological dataset. An empty version selects the latest.
func (s *Store) FetchData(uuid, version string) (*dataset.Dataset, error) {
	d, err := datasource.Load(s.objects, s.bucket, uuid)
	if err != nil {
		return nil, err
	}
	return d.FetchData(s.objects, s.bucket, version)
}

// Datasources returns the UUIDs of all Datasources this store owns.
func (s *Store) Datasources() ([]string, error) {
	root, err := s.loadRoot()
	if err != nil {
		return nil, err
	}
	return root.Datasources, nil
}

// --------------------------------------------------------------------------
// Deletion
// --------------------------------------------------------------------------

// DeleteDatasource removes a Datasource entirely: all versions and blocks,
// the index entry and the root-set membership, in one locked transaction so
// no orphaned index entry can survive.
func (s *Store) DeleteDatasource(uuid string) error {
	return s.locker.WithLock(s.bucket, s.lockKey(), func() error {
		root, err := s.loadRoot()
		if err != nil {
			return err
		}
		if !root.owns(uuid) {
			return fmt.Errorf("datasource %q is not owned by the %s store", uuid, s.def.DataType)
		}

		d, err := datasource.Load(s.objects, s.bucket, uuid)
		if err != nil {
			return err
		}
		if err := d.Delete(s.objects, s.bucket); err != nil {
			return err
		}

		ms, err := metastore.Load(s.objects, s.bucket, s.def.DataType)
		if err != nil {
			return err
		}
		ms.Deregister(uuid)
		if err := ms.Save(s.objects, s.bucket); err != nil {
			return err
		}

		kept := root.Datasources[:0]
		for _, id := range root.Datasources {
			if id != uuid {
				kept = append(kept, id)
			}
		}
		root.Datasources = kept
		return s.saveRoot(root)
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// hashFile fingerprints a file's content with SHA-1.
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

func identitySubset(meta map[string]string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		k = strings.ToLower(k)
		if v, ok := meta[k]; ok {
			out[k] = v
		}
	}
	return out
}
