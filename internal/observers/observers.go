// Package observers provides a reusable multi-subscriber notification
// container usable by any publisher.
//
// Subscribers are compared by identity, so registering the same observer
// twice is a no-op and a single Remove fully unregisters it. Lifetime is
// explicit: an observer stays registered until Remove is called; there is
// no reliance on garbage-collector-assisted weak references.
package observers

import "sync"

// Container is an identity-keyed set of observers with fan-out
// notification.
//
// All mutation and iteration of the set is guarded by a single mutex.
// The lock is held only while the set is mutated or snapshotted, never
// while a callback runs, so a callback that re-enters the container does
// not deadlock.
type Container[O any] struct {
	mu        sync.Mutex
	observers []O
}

// NewContainer creates an empty container.
func NewContainer[O any]() *Container[O] {
	return &Container[O]{}
}

// Add registers an observer. Adding an observer that is already present
// is a no-op.
func (c *Container[O]) Add(observer O) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(observer) >= 0 {
		return
	}
	c.observers = append(c.observers, observer)
}

// Remove unregisters an observer. Removing an absent observer is a
// no-op.
func (c *Container[O]) Remove(observer O) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(observer)
	if i < 0 {
		return
	}
	c.observers = append(c.observers[:i], c.observers[i+1:]...)
}

// Len returns the number of registered observers.
func (c *Container[O]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// Notify invokes fn once per registered observer, in no guaranteed
// order. The observer set is snapshotted before iteration, so observers
// added or removed by a callback take effect from the next Notify.
func (c *Container[O]) Notify(fn func(O)) {
	for _, observer := range c.snapshot() {
		fn(observer)
	}
}

func (c *Container[O]) snapshot() []O {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]O, len(c.observers))
	copy(out, c.observers)
	return out
}

// indexOf must be called with c.mu held. Observers are matched by
// identity (interface equality), not by value semantics.
func (c *Container[O]) indexOf(observer O) int {
	for i, existing := range c.observers {
		if any(existing) == any(observer) {
			return i
		}
	}
	return -1
}
