// Package local implements the objectstore.IObjectStore interface directly
// on the filesystem. Each bucket is a directory under the store root and
// each key maps to one file with a "._data" suffix, so a key can safely be a
// path prefix of another key.
//
// Durability properties:
//   - SetObject writes through a temp file in the target directory followed
//     by a rename, so readers never observe a half-written object
//   - SetIfUnset uses O_CREATE|O_EXCL, making creation an atomic
//     compare-and-set suitable for the lock manager
package local
