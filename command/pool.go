package command

import "sync"

// Pool is a per-command-type object pool, grounded on the Acquire/Release
// pattern in the teacher's event/pool.go (sync.Pool wrapped with an
// in-place slice/field reset on both ends of the lifecycle). Unlike
// sync.Pool, capacity here is a hard registration-time ceiling rather than
// a GC-driven cache: a pool never shrinks itself, and exhaustion falls
// back to allocation per spec.md §7 ("soft degradation").
type Pool[T Command] struct {
	mu       sync.Mutex
	free     []T
	capacity int
	newFn    func() T
}

// NewPool creates a pool with the given initial capacity (the maximum
// initial capacity requested by any queue registration for this command
// type, per spec.md §4.C) and constructor.
func NewPool[T Command](capacity int, newFn func() T) *Pool[T] {
	return &Pool[T]{
		capacity: capacity,
		newFn:    newFn,
		free:     make([]T, 0, capacity),
	}
}

// Acquire returns a pooled instance, or a freshly allocated one if the
// pool is currently empty. The returned instance's fields are whatever
// ResetToDefault left them as (or the constructor's initial state, for a
// newly allocated instance) — callers must configure it via an
// initializer before enqueueing.
func (p *Pool[T]) Acquire() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		t := p.free[n-1]
		p.free = p.free[:n-1]
		return t
	}
	return p.newFn()
}

// Release resets t to its default state and returns it to the pool. If
// the pool is already at capacity, t is dropped (left for the garbage
// collector) rather than grown without bound.
func (p *Pool[T]) Release(t T) {
	t.ResetToDefault()

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) < p.capacity {
		p.free = append(p.free, t)
	}
}

// Len reports the number of instances currently held free in the pool.
// Exposed for pool-inspecting tests (spec.md §8 scenario 1: observing that
// a released instance is the same one handed back by a subsequent
// Acquire).
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
