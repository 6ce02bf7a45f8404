//go:build debuglock

package table

import "fmt"

// AssertOrder panics if next does not come strictly after prev in the
// Main < Run < Term < Boot chain. It is compiled only under the
// debuglock build tag; callers pass the name of the previously acquired
// lock explicitly since Go has no goroutine-local storage to track it
// automatically.
func AssertOrder(prevName, nextName string) {
	prev, ok := lockOrder[prevName]
	if !ok {
		panic(fmt.Sprintf("table: unknown lock name %q", prevName))
	}
	next, ok := lockOrder[nextName]
	if !ok {
		panic(fmt.Sprintf("table: unknown lock name %q", nextName))
	}
	if next <= prev {
		panic(fmt.Sprintf("table: lock order violation: acquired %q after %q", nextName, prevName))
	}
}
