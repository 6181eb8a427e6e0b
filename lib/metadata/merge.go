package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Policies and Options
// --------------------------------------------------------------------------

// ConflictPolicy decides what happens when a key is present on both sides
// with genuinely different values.
type ConflictPolicy string

const (
	ConflictLeft  ConflictPolicy = "left"
	ConflictRight ConflictPolicy = "right"
	ConflictDrop  ConflictPolicy = "drop"
	ConflictError ConflictPolicy = "error"
)

// OverlapPolicy decides whether a key being present on both sides is itself
// an error, before values are compared.
type OverlapPolicy string

const (
	OverlapIgnore OverlapPolicy = "ignore"
	OverlapError  OverlapPolicy = "error"
)

// floatTolerance is the relative tolerance used when both values parse as
// floats.
const floatTolerance = 1e-9

// options collects the merge configuration. Fields are set through Option
// functions so the zero configuration stays usable.
type options struct {
	keys       []string
	keysLeft   []string
	keysRight  []string
	onOverlap  OverlapPolicy
	onConflict ConflictPolicy
	notSet     []string
	nullValues []string
	removeNull bool
}

// Option configures a Merge call.
type Option func(*options)

// WithKeys restricts both sides to the given keys.
func WithKeys(keys ...string) Option {
	return func(o *options) { o.keys = keys }
}

// WithKeysLeft restricts the left side to the given keys.
func WithKeysLeft(keys ...string) Option {
	return func(o *options) { o.keysLeft = keys }
}

// WithKeysRight restricts the right side to the given keys.
func WithKeysRight(keys ...string) Option {
	return func(o *options) { o.keysRight = keys }
}

// OnOverlap sets the overlap policy (default OverlapIgnore).
func OnOverlap(p OverlapPolicy) Option {
	return func(o *options) { o.onOverlap = p }
}

// OnConflict sets the conflict policy (default ConflictLeft).
func OnConflict(p ConflictPolicy) Option {
	return func(o *options) { o.onConflict = p }
}

// NotSetValues sets the sentinel values that mean "unknown". A sentinel is
// always subordinate to a real value, regardless of conflict policy.
func NotSetValues(values ...string) Option {
	return func(o *options) { o.notSet = values }
}

// NullValues sets the sentinel values that cause a key to be dropped from
// the result entirely (unless KeepNull is also given).
func NullValues(values ...string) Option {
	return func(o *options) { o.nullValues = values }
}

// KeepNull keeps keys whose value is a null sentinel instead of dropping
// them.
func KeepNull() Option {
	return func(o *options) { o.removeNull = false }
}

func defaultOptions() options {
	return options{
		onOverlap:  OverlapIgnore,
		onConflict: ConflictLeft,
		notSet:     []string{"not_set"},
		nullValues: []string{"", "none", "null", "nan", "nat"},
		removeNull: true,
	}
}

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

// Normalize lower-cases every key and string value of a metadata mapping.
// All comparison keys in the engine are lower-cased, so every mapping is
// normalized once at the boundary.
func Normalize(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// --------------------------------------------------------------------------
// Merge
// --------------------------------------------------------------------------

// Merge combines two metadata mappings into one under the configured
// precedence rules:
//
//   - equal values (case-insensitive, float tolerant) are kept as-is
//   - a not-set sentinel on one side loses to a real value on the other,
//     regardless of conflict policy
//   - genuinely conflicting values follow the conflict policy: keep left,
//     keep right, drop the key, or fail naming the conflict
//   - null-sentinel values cause the key to be dropped from the result
//     (unless KeepNull)
//
// Key restrictions (WithKeys / WithKeysLeft / WithKeysRight) control which
// keys are even considered from each side, which is how identity keys are
// protected from accidental override by informational metadata.
func Merge(left, right map[string]string, opts ...Option) (map[string]string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l := restrict(Normalize(left), firstNonNil(o.keysLeft, o.keys))
	r := restrict(Normalize(right), firstNonNil(o.keysRight, o.keys))

	out := make(map[string]string, len(l)+len(r))
	for k, v := range l {
		out[k] = v
	}

	for k, rv := range r {
		lv, both := out[k]
		if !both {
			out[k] = rv
			continue
		}

		if o.onOverlap == OverlapError {
			return nil, fmt.Errorf("metadata key %q present in both inputs and overlap policy is %q", k, OverlapError)
		}

		if equalValues(lv, rv) {
			continue
		}

		// The not-set sentinel never wins over a real value.
		lNotSet := contains(o.notSet, lv)
		rNotSet := contains(o.notSet, rv)
		switch {
		case lNotSet && !rNotSet:
			out[k] = rv
			continue
		case rNotSet && !lNotSet:
			continue
		case lNotSet && rNotSet:
			continue
		}

		switch o.onConflict {
		case ConflictLeft:
			// keep lv
		case ConflictRight:
			out[k] = rv
		case ConflictDrop:
			delete(out, k)
		case ConflictError:
			return nil, fmt.Errorf("conflicting values for metadata key %q: %q != %q", k, lv, rv)
		default:
			return nil, fmt.Errorf("unknown conflict policy %q", o.onConflict)
		}
	}

	if o.removeNull {
		for k, v := range out {
			if contains(o.nullValues, v) {
				delete(out, k)
			}
		}
	}

	return out, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// restrict returns only the listed keys of meta; a nil list keeps all keys.
func restrict(meta map[string]string, keys []string) map[string]string {
	if keys == nil {
		return meta
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		k = strings.ToLower(k)
		if v, ok := meta[k]; ok {
			out[k] = v
		}
	}
	return out
}

func firstNonNil(a, b []string) []string {
	if a != nil {
		return a
	}
	return b
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// equalValues compares two metadata values case-insensitively, with a
// relative tolerance when both parse as floats.
func equalValues(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	if fa == fb {
		return true
	}
	scale := math.Max(math.Abs(fa), math.Abs(fb))
	return math.Abs(fa-fb) <= floatTolerance*scale
}
