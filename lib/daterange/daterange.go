package daterange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// TimestampLayout is the fixed on-disk timestamp format. It always renders
	// a numeric zone offset, so UTC timestamps read "+00:00" and round-trip
	// exactly through Create / Split.
	TimestampLayout = "2006-01-02-15:04:05-07:00"

	// Separator joins the start and end timestamp of a daterange string.
	Separator = "_"
)

// --------------------------------------------------------------------------
// Range Type
// --------------------------------------------------------------------------

// Range is a closed time interval [Start, End]. Both bounds are always
// UTC-normalized before comparison or encoding.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange creates a Range with both bounds normalized to UTC.
func NewRange(start, end time.Time) Range {
	return Range{Start: start.UTC(), End: end.UTC()}
}

// String encodes the range as the canonical "<start>_<end>" daterange string.
func (r Range) String() string {
	return Create(r.Start, r.End)
}

// Overlaps reports whether two closed intervals share at least one instant:
// aStart <= bEnd && bStart <= aEnd. The test is symmetric.
func (r Range) Overlaps(other Range) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// --------------------------------------------------------------------------
// Encoding / Decoding
// --------------------------------------------------------------------------

// Create encodes a start and end timestamp as a daterange string.
func Create(start, end time.Time) string {
	return start.UTC().Format(TimestampLayout) + Separator + end.UTC().Format(TimestampLayout)
}

// Split decodes a daterange string back into its bounds. It is the exact
// inverse of Create.
func Split(s string) (start, end time.Time, err error) {
	parts := strings.Split(s, Separator)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid daterange string %q: expected two timestamps separated by %q", s, Separator)
	}

	start, err = time.Parse(TimestampLayout, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid daterange start in %q: %w", s, err)
	}

	end, err = time.Parse(TimestampLayout, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid daterange end in %q: %w", s, err)
	}

	return start.UTC(), end.UTC(), nil
}

// Parse decodes a daterange string into a Range.
func Parse(s string) (Range, error) {
	start, end, err := Split(s)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// Overlap reports whether the two daterange strings overlap.
// An error is returned if either string cannot be decoded.
func Overlap(a, b string) (bool, error) {
	ra, err := Parse(a)
	if err != nil {
		return false, err
	}
	rb, err := Parse(b)
	if err != nil {
		return false, err
	}
	return ra.Overlaps(rb), nil
}

// --------------------------------------------------------------------------
// Representative Dateranges
// --------------------------------------------------------------------------

// Representative computes the representative daterange for a chunk of
// timestamps. The range spans min to max timestamp; if a sampling period is
// known the end bound is extended by one period minus one second so
// consecutive periodic chunks are contiguous rather than overlapping. A
// zero-length range is widened by one second, so a valid range is never
// empty.
func Representative(times []time.Time, period time.Duration) (Range, error) {
	if len(times) == 0 {
		return Range{}, fmt.Errorf("cannot compute a daterange for an empty time index")
	}

	start := times[0].UTC()
	end := times[0].UTC()
	for _, t := range times[1:] {
		t = t.UTC()
		if t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}

	if period > 0 {
		end = end.Add(period - time.Second)
	}
	if !end.After(start) {
		end = start.Add(time.Second)
	}

	return Range{Start: start, End: end}, nil
}

// ParsePeriod parses a sampling period value as found in metadata under
// "sampling_period" or "time_period". Accepted forms are a bare number of
// seconds ("60", "60.0") or a Go duration string ("60s", "1h"). An empty or
// "not_set" value yields a zero period.
func ParsePeriod(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "not_set" || s == "none" {
		return 0, nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid sampling period %q: %w", s, err)
	}
	return d, nil
}

// --------------------------------------------------------------------------
// Sorting and Bounds
// --------------------------------------------------------------------------

// SortRanges sorts daterange strings chronologically by their start bound.
// Strings that cannot be decoded sort last; callers validate on write so a
// stored list never contains such strings.
func SortRanges(ranges []string) {
	sort.SliceStable(ranges, func(i, j int) bool {
		ri, erri := Parse(ranges[i])
		rj, errj := Parse(ranges[j])
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return ri.Start.Before(rj.Start)
	})
}

// Bounds returns the overall start and end covered by the daterange strings.
func Bounds(ranges []string) (start, end time.Time, err error) {
	if len(ranges) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot compute bounds of an empty daterange list")
	}

	for i, s := range ranges {
		r, perr := Parse(s)
		if perr != nil {
			return time.Time{}, time.Time{}, perr
		}
		if i == 0 || r.Start.Before(start) {
			start = r.Start
		}
		if i == 0 || r.End.After(end) {
			end = r.End
		}
	}
	return start, end, nil
}
