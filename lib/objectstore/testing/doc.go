// Package testing provides a reusable conformance test suite for
// objectstore.IObjectStore implementations. Every engine runs the same
// suite through RunObjectStoreTests, so behavioral differences between
// backends surface as test failures rather than production surprises.
package testing
