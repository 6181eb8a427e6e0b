// Package datasource implements the versioned container for one logical
// time series, one species/site/inlet (or equivalent) identity, and the
// data-merge algorithm at the heart of the storage engine.
//
// A Datasource owns a version history: each version maps sorted,
// non-overlapping daterange strings to stored array blocks. Incoming data is
// reduced to a representative daterange (padded by the sampling period so
// periodic chunks tile exactly) and compared against the active version:
//
//   - no overlap: the chunk joins the active version as a new segment
//   - overlap under PolicyAuto: *OverlapError naming both ranges, nothing
//     mutated; altering history requires explicit confirmation
//   - overlap under PolicyNew: the new data becomes its own version
//     (NewVersion=true, history preserved) or overwrites the active version
//   - overlap under PolicyCombine: old and new are spliced along the time
//     axis, new values winning on duplicate timestamps, and the conflicting
//     segments collapse into one merged segment
//
// After any mutation the start_date/end_date metadata is recomputed from the
// active version's segment list, so the bounds always describe the latest
// version only.
//
// On-disk layout (interoperability contract):
//   - record: JSON at "datasource/uuid/<uuid>"
//   - blocks: serialized datasets at "data/uuid/<uuid>/<version>/<daterange>"
//
// A Datasource instance is owned exclusively by the transaction that loaded
// it; it is not designed for concurrent mutation.
package datasource
