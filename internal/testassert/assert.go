// Package testassert holds the one generic assertion helper the property
// checks in internal/proptest's callers need: a failed trial already carries
// its own diagnostic message, so there's nothing here beyond reporting it.
package testassert

import "testing"

// False asserts that cond is false, failing the test with a formatted
// message (in the style of t.Errorf) otherwise.
func False(t testing.TB, cond bool, format string, args ...any) bool {
	t.Helper()
	if cond {
		t.Errorf("condition is true: "+format, args...)
		return false
	}
	return true
}
