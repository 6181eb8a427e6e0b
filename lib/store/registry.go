package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/emberlab/gasvault/lib/dataset"
)

// --------------------------------------------------------------------------
// Data Type Definitions
// --------------------------------------------------------------------------

// Definition describes one data type the platform stores: its root key
// namespace, its fixed store UUID, the metadata keys that make up a
// Datasource identity, and the schema datasets must satisfy.
type Definition struct {
	// DataType is the unique name of the data type ("surface", "flux", ...).
	DataType string
	// Root is the key namespace of the store's root record.
	Root string
	// UUID is the fixed identifier of the store root record. It is part of
	// the on-disk layout and never changes.
	UUID string
	// RequiredKeys is the minimal metadata field set defining a Datasource's
	// identity for lookup.
	RequiredKeys []string
	// OptionalKeys extend the stored identity when present in incoming
	// metadata, letting data types refine identity without an index schema
	// change.
	OptionalKeys []string
	// Schema is the minimal shape every dataset must have.
	Schema dataset.Schema
	// VarFromMetadataKey optionally names a metadata key whose value is a
	// required data variable (surface data must carry a column named after
	// its species).
	VarFromMetadataKey string
}

// SchemaFor returns the schema an individual parsed unit must satisfy,
// extending the base schema with the variable derived from the unit's
// metadata when the definition asks for one.
func (d Definition) SchemaFor(meta map[string]string) dataset.Schema {
	schema := dataset.Schema{
		Dims: append([]string{}, d.Schema.Dims...),
		Vars: make(map[string]dataset.DType, len(d.Schema.Vars)+1),
	}
	for v, dt := range d.Schema.Vars {
		schema.Vars[v] = dt
	}
	if d.VarFromMetadataKey != "" {
		if v, ok := meta[strings.ToLower(d.VarFromMetadataKey)]; ok && v != "" {
			schema.Vars[v] = dataset.DTypeFloat64
		}
	}
	return schema
}

// --------------------------------------------------------------------------
// Registration Table
// --------------------------------------------------------------------------

// definitions is the explicit registration table from data type name to
// Definition. It is populated at startup and checked for uniqueness, so
// dispatch never depends on initialization order tricks.
type definitionTable struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

var table = &definitionTable{defs: make(map[string]Definition)}

// Register adds a data type definition. Duplicate data types, roots or
// store UUIDs are startup errors.
func Register(def Definition) error {
	if def.DataType == "" || def.Root == "" || def.UUID == "" {
		return fmt.Errorf("definition must carry a data type, root and UUID")
	}
	if len(def.RequiredKeys) == 0 {
		return fmt.Errorf("definition %q must declare required identity keys", def.DataType)
	}

	table.mu.Lock()
	defer table.mu.Unlock()

	for _, existing := range table.defs {
		if existing.DataType == def.DataType {
			return fmt.Errorf("data type %q is already registered", def.DataType)
		}
		if existing.Root == def.Root {
			return fmt.Errorf("root %q is already used by data type %q", def.Root, existing.DataType)
		}
		if existing.UUID == def.UUID {
			return fmt.Errorf("store UUID %q is already used by data type %q", def.UUID, existing.DataType)
		}
	}
	table.defs[def.DataType] = def
	return nil
}

// Lookup returns the definition of a data type.
func Lookup(dataType string) (Definition, error) {
	table.mu.RLock()
	defer table.mu.RUnlock()
	def, ok := table.defs[dataType]
	if !ok {
		return Definition{}, fmt.Errorf("unknown data type %q (known: %v)", dataType, dataTypesLocked())
	}
	return def, nil
}

// DataTypes returns the registered data type names, sorted.
func DataTypes() []string {
	table.mu.RLock()
	defer table.mu.RUnlock()
	return dataTypesLocked()
}

func dataTypesLocked() []string {
	out := make([]string, 0, len(table.defs))
	for dt := range table.defs {
		out = append(out, dt)
	}
	sort.Strings(out)
	return out
}

// --------------------------------------------------------------------------
// Built-in Data Types
// --------------------------------------------------------------------------

// RegisterBuiltins registers the built-in data types. It is called once at
// startup; a second call reports the duplicate instead of masking it.
func RegisterBuiltins() error {
	builtins := []Definition{
		{
			DataType:           "surface",
			Root:               "obssurface",
			UUID:               "5f30bd2c-8ee7-4c3e-92a1-6f3a4c7d9b10",
			RequiredKeys:       []string{"site", "species", "inlet"},
			OptionalKeys:       []string{"network", "instrument"},
			Schema:             dataset.NewSchema(),
			VarFromMetadataKey: "species",
		},
		{
			DataType:     "flux",
			Root:         "flux",
			UUID:         "2f6c3a9e-0d41-45a8-bb6a-28c17d52e4a7",
			RequiredKeys: []string{"species", "source", "domain"},
			Schema:       dataset.NewSchema("flux"),
		},
		{
			DataType:     "footprints",
			Root:         "footprints",
			UUID:         "8a1de4f2-7c55-4b0e-9c6d-f042b39a61c8",
			RequiredKeys: []string{"site", "model", "domain"},
			OptionalKeys: []string{"inlet", "height"},
			Schema:       dataset.NewSchema("fp"),
		},
	}

	for _, def := range builtins {
		if err := Register(def); err != nil {
			return err
		}
	}
	return nil
}
