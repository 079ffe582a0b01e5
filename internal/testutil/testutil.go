// Package testutil collects small testify-free assertion helpers shared
// across this engine's test files, in the style of the graph library's
// core/test_helpers_test.go Must* family: each takes the *testing.T, the
// value(s) under test, and an operation label for the failure message.
//
// Unlike that package's helpers, these live outside any _test.go file so
// every package's tests can import them directly.
package testutil

import (
	"testing"

	"github.com/lucidgraph/symbolic/graphdesc"
)

// MustDecode decodes js and fails the test immediately on error. This
// engine's fail-fast policy (no partial results on a malformed document)
// means a decode error in a test fixture is always a test bug, not a
// case to assert against.
func MustDecode(t *testing.T, js string) *graphdesc.Document {
	t.Helper()
	doc, err := graphdesc.DecodeBytes([]byte(js))
	MustNoError(t, err, "graphdesc.DecodeBytes")
	return doc
}

// MustNoError fails the test, naming op, if err is non-nil.
func MustNoError(t *testing.T, err error, op string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", op, err)
	}
}

// MustError fails the test, naming op, if err is nil.
func MustError(t *testing.T, err error, op string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected an error, got nil", op)
	}
}
