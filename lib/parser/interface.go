package parser

import (
	"fmt"
	"sort"
	"sync"

	"github.com/emberlab/gasvault/lib/dataset"
)

// --------------------------------------------------------------------------
// Parser Contract
// --------------------------------------------------------------------------

// ParsedUnit is one labelled result of parsing a file: a time-indexed
// dataset and its flat metadata. The storage core never depends on
// per-format parsing logic, only on this shape.
type ParsedUnit struct {
	Data     *dataset.Dataset
	Metadata map[string]string
}

// Func parses a file into named units, keyed by a label such as the species
// name. kwargs carries type-specific hints (site, inlet, column names, ...).
type Func func(path string, kwargs map[string]string) (map[string]ParsedUnit, error)

// --------------------------------------------------------------------------
// Format Registry
// --------------------------------------------------------------------------

// registry maps source format names to parser functions. It is populated
// explicitly at startup; Register fails on duplicates, so two parsers can
// never silently claim the same format.
type registry struct {
	mu      sync.RWMutex
	parsers map[string]Func
}

var formats = &registry{parsers: make(map[string]Func)}

// Register adds a parser for a source format. Registering a format twice is
// an error.
func Register(format string, fn Func) error {
	formats.mu.Lock()
	defer formats.mu.Unlock()
	if _, exists := formats.parsers[format]; exists {
		return fmt.Errorf("parser for source format %q is already registered", format)
	}
	formats.parsers[format] = fn
	return nil
}

// Get returns the parser for a source format.
func Get(format string) (Func, error) {
	formats.mu.RLock()
	defer formats.mu.RUnlock()
	fn, ok := formats.parsers[format]
	if !ok {
		return nil, fmt.Errorf("no parser registered for source format %q (known: %v)", format, knownLocked())
	}
	return fn, nil
}

// Formats returns the registered source format names, sorted.
func Formats() []string {
	formats.mu.RLock()
	defer formats.mu.RUnlock()
	return knownLocked()
}

func knownLocked() []string {
	out := make([]string, 0, len(formats.parsers))
	for f := range formats.parsers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
