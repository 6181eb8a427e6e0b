// Package metadata implements the merge engine that reconciles metadata from
// multiple sources (parser output, caller overrides, previously stored
// metadata) into one flat mapping.
//
// Every mapping is normalized (keys and string values lower-cased) at the
// boundary, so all comparisons inside the engine are case-insensitive.
//
// Precedence rules:
//   - equal values are kept (float values compare with a small relative
//     tolerance)
//   - the not-set sentinel ("not_set" by default) always loses to a real
//     value, no matter which side carries it or what the conflict policy is
//   - genuinely conflicting values follow the configured ConflictPolicy:
//     keep left, keep right, drop the key, or fail loudly
//   - null-sentinel values drop their key from the result unless KeepNull
//
// The per-side key restrictions are what keep a Datasource's identity keys
// stable: callers merge informational metadata with the identity keys
// excluded from the overriding side, so an ingestion can never silently
// rename the series it belongs to.
package metadata
