package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// --------------------------------------------------------------------------
// Schema Types
// --------------------------------------------------------------------------

// DType identifies the element type of a data variable.
type DType string

const (
	DTypeFloat64 DType = "float64"
)

// Schema declares the minimal shape a dataset must have before it is
// accepted for storage: the required dimensions and the required data
// variables with their dtypes. Extra variables are always allowed.
type Schema struct {
	Dims []string         `json:"dims"`
	Vars map[string]DType `json:"vars"`
}

// NewSchema creates a Schema over the time dimension with the given required
// float variables.
func NewSchema(vars ...string) Schema {
	s := Schema{
		Dims: []string{"time"},
		Vars: make(map[string]DType, len(vars)),
	}
	for _, v := range vars {
		s.Vars[strings.ToLower(v)] = DTypeFloat64
	}
	return s
}

// --------------------------------------------------------------------------
// Schema Error
// --------------------------------------------------------------------------

// SchemaError reports every way a dataset failed validation against a
// declared schema. It aborts the ingestion of the parsed unit it belongs to.
type SchemaError struct {
	MissingDims []string
	MissingVars []string
	Problems    []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var parts []string
	if len(e.MissingDims) > 0 {
		parts = append(parts, fmt.Sprintf("missing dimensions: %s", strings.Join(e.MissingDims, ", ")))
	}
	if len(e.MissingVars) > 0 {
		parts = append(parts, fmt.Sprintf("missing variables: %s", strings.Join(e.MissingVars, ", ")))
	}
	parts = append(parts, e.Problems...)
	return "schema validation failed: " + strings.Join(parts, "; ")
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

// Validate checks a dataset against the schema. On failure it returns a
// *SchemaError naming every missing dimension and variable, so a caller can
// report the full problem in one round.
func (s Schema) Validate(d *Dataset) error {
	schemaErr := &SchemaError{}

	for _, dim := range s.Dims {
		if strings.EqualFold(dim, "time") {
			if len(d.Times) == 0 {
				schemaErr.MissingDims = append(schemaErr.MissingDims, dim)
			}
			continue
		}
		// Only the time dimension is modelled structurally; any other
		// declared dimension must be recorded as a dataset attribute.
		if _, ok := d.Attrs[strings.ToLower(dim)]; !ok {
			schemaErr.MissingDims = append(schemaErr.MissingDims, dim)
		}
	}

	for name := range s.Vars {
		if _, ok := d.Columns[name]; !ok {
			schemaErr.MissingVars = append(schemaErr.MissingVars, name)
		}
	}
	sort.Strings(schemaErr.MissingDims)
	sort.Strings(schemaErr.MissingVars)

	if err := d.check(); err != nil {
		schemaErr.Problems = append(schemaErr.Problems, err.Error())
	}

	if len(schemaErr.MissingDims) > 0 || len(schemaErr.MissingVars) > 0 || len(schemaErr.Problems) > 0 {
		return schemaErr
	}
	return nil
}
