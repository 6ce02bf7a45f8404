package table

import "sync"

// Waiter is a one-shot completion slot: a caller blocks on Channel()
// until the control loop calls Signal exactly once. It is the
// language-neutral substitute DESIGN NOTES calls for in place of the
// source's raw binary semaphore plus heap-allocated status integer.
type Waiter[T any] struct {
	ch   chan T
	once sync.Once
}

// NewWaiter creates a Waiter with a buffered channel of size 1, so
// Signal never blocks even if nobody is listening yet (e.g. Shutdown
// resolving every pending waiter on its way out).
func NewWaiter[T any]() *Waiter[T] {
	return &Waiter[T]{ch: make(chan T, 1)}
}

// Signal releases the waiter with the given value. Only the first call
// has any effect; the slot is not re-used afterwards. A nil Waiter
// (no one asked to block) makes Signal a no-op, so callers don't need
// to guard every call site with a nil check.
func (w *Waiter[T]) Signal(v T) {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.ch <- v
	})
}

// Channel returns the channel the caller should receive from exactly
// once.
func (w *Waiter[T]) Channel() <-chan T {
	return w.ch
}
