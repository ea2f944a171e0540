// Package arena implements the per-entity-kind dense slot store described
// in spec.md §4.A: a generation-versioned handle arena with O(1) spawn,
// despawn, and lookup, a LIFO freelist for cache-hot reuse, and generation
// retirement on counter wraparound so a stale handle can never alias a
// future live entity.
package arena

import (
	"sync"

	"github.com/lixenwraith/tickframe/constant"
	"github.com/lixenwraith/tickframe/handle"
)

// slot holds one arena-managed data element plus its bookkeeping.
type slot[T any] struct {
	data       T
	generation uint32
	alive      bool
	retired    bool // true once generation has wrapped; slot is never reused
}

// Arena is a dense store for one entity kind's data. Indices are stable for
// the lifetime of the process: a handle's Index always refers to the same
// slot, and only the slot's Generation changes across reuse.
//
// Spawn callbacks run after allocation and before the handle is returned to
// the caller; despawn callbacks run before the slot is marked dead. Each
// callback fires at most once per slot lifetime, matching spec.md §4.A.
type Arena[T any] struct {
	mu   sync.RWMutex
	kind handle.Kind

	slots []slot[T]
	free  []uint32 // LIFO freelist of reusable slot indices

	onSpawn   func(handle.Handle, *T)
	onDespawn func(handle.Handle, *T)
}

// New creates an arena for the given kind with the default initial
// capacity. onSpawn and onDespawn may be nil.
func New[T any](kind handle.Kind, onSpawn, onDespawn func(handle.Handle, *T)) *Arena[T] {
	return NewWithCapacity[T](kind, constant.DefaultArenaCapacity, onSpawn, onDespawn)
}

// NewWithCapacity creates an arena for the given kind, pre-sizing the slot
// slice to capacity.
func NewWithCapacity[T any](kind handle.Kind, capacity int, onSpawn, onDespawn func(handle.Handle, *T)) *Arena[T] {
	return &Arena[T]{
		kind:      kind,
		slots:     make([]slot[T], 0, capacity),
		free:      make([]uint32, 0, capacity),
		onSpawn:   onSpawn,
		onDespawn: onDespawn,
	}
}

// Kind returns the entity kind this arena stores.
func (a *Arena[T]) Kind() handle.Kind {
	return a.kind
}

// Create allocates a new slot, preferring a freed slot (LIFO, for cache
// warmth) over growing the backing slice. Capacity grows as needed; once
// allocated, a slot's index is never relocated.
func (a *Arena[T]) Create() handle.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}

	s := &a.slots[idx]
	s.alive = true

	h := handle.Handle{Index: idx, Generation: s.generation, Kind: a.kind}

	if a.onSpawn != nil {
		a.onSpawn(h, &s.data)
	}

	return h
}

// Destroy despawns the slot addressed by h. Returns false if h is already
// invalid (stale generation or dead slot), in which case destroy is a
// no-op. On success, the despawn callback runs, the slot is marked dead,
// and its generation is incremented (or the slot retired, on wraparound)
// before any future Create can reuse it.
func (a *Arena[T]) Destroy(h handle.Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.Kind != a.kind || int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	if !s.alive || s.retired || s.generation != h.Generation {
		return false
	}

	if a.onDespawn != nil {
		a.onDespawn(h, &s.data)
	}

	s.alive = false
	var zero T
	s.data = zero

	if s.generation == ^uint32(0) {
		// Wraparound: retire the slot rather than risk aliasing a stale
		// handle held elsewhere against a future live entity.
		s.retired = true
	} else {
		s.generation++
		a.free = append(a.free, h.Index)
	}

	return true
}

// Get returns a copy of the data at h, or the zero value and false if h is
// invalid.
func (a *Arena[T]) Get(h handle.Handle) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var zero T
	if !a.validLocked(h) {
		return zero, false
	}
	return a.slots[h.Index].data, true
}

// GetMut invokes fn with a pointer to the live data at h, allowing
// in-place mutation. Returns false (fn is not invoked) if h is invalid.
func (a *Arena[T]) GetMut(h handle.Handle, fn func(*T)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.validLocked(h) {
		return false
	}
	fn(&a.slots[h.Index].data)
	return true
}

// IsValid reports whether h currently addresses a live slot whose
// generation matches.
func (a *Arena[T]) IsValid(h handle.Handle) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.validLocked(h)
}

func (a *Arena[T]) validLocked(h handle.Handle) bool {
	if h.Kind != a.kind || int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	return s.alive && s.generation == h.Generation
}

// FromErased checks that an erased handle belongs to this arena's kind and
// returns the typed handle. The second return is false if the kind tag
// does not match.
func (a *Arena[T]) FromErased(e handle.Erased) (handle.Handle, bool) {
	if e.Kind != a.kind {
		return handle.Handle{}, false
	}
	return e.Handle, true
}

// All returns the handles of every currently live slot. The returned slice
// is a snapshot; it does not track subsequent spawns/despawns.
func (a *Arena[T]) All() []handle.Handle {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]handle.Handle, 0, len(a.slots)-len(a.free))
	for i := range a.slots {
		s := &a.slots[i]
		if s.alive {
			out = append(out, handle.Handle{Index: uint32(i), Generation: s.generation, Kind: a.kind})
		}
	}
	return out
}

// Len returns the number of currently live slots.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for i := range a.slots {
		if a.slots[i].alive {
			n++
		}
	}
	return n
}

// Cap returns the number of slots allocated so far (live, free, and
// retired), useful for diagnostics and snapshot sizing.
func (a *Arena[T]) Cap() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slots)
}
