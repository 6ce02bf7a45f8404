//go:build !debuglock

package table

// AssertOrder is a no-op in normal builds; see assert_debuglock.go for
// the checked version enabled by the debuglock build tag.
func AssertOrder(prevName, nextName string) {}
