package datasource

import (
	"fmt"
	"strings"
)

// OverlapError is returned when incoming data overlaps data already stored
// in the active version and the caller asked for explicit confirmation
// (PolicyAuto). The store is left unchanged.
type OverlapError struct {
	Existing []string // the stored daterange strings that conflict
	New      string   // the incoming representative daterange string
}

// Error implements the error interface.
func (e *OverlapError) Error() string {
	return fmt.Sprintf(
		"new data range %s overlaps stored range(s) %s; pass an explicit overlap policy to proceed",
		e.New, strings.Join(e.Existing, ", "),
	)
}
