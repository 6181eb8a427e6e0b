// Package daterange implements the canonical textual encoding of time
// segments and the interval algebra the storage engine is built on.
//
// A daterange string is "<start>_<end>" with both timestamps rendered in a
// fixed ISO-like layout (e.g. "2020-01-01-00:00:00+00:00"). The same string
// is used as a lookup key, as a fragment of on-disk object keys and as the
// unit of version bookkeeping, so Create and Split must round-trip exactly.
//
// Core Functionality:
//   - Create / Split / Parse: encode and decode daterange strings
//   - Overlap: symmetric closed-interval overlap test
//   - Representative: the daterange covering a chunk of timestamps, padded
//     by one sampling period minus one second so consecutive periodic
//     samples neither gap nor overlap spuriously
//   - SortRanges / Bounds: ordering and span helpers for segment lists
//
// All timestamps are normalized to UTC before comparison or encoding.
package daterange
