// Package clone implements the structural deep-copy contract of spec.md
// §4.K: a cloneable type's fields are copied field-by-field under one of
// four modes (Deep, Shallow, Ignore, Cyclable), with collections cloned
// element-wise. Unlike snapshot's CycleTable (original reference id ->
// decoded object, keyed across a serialized stream), clone.Table tracks
// original pointer identity -> in-memory clone directly, since both
// sides of a clone operation are live Go objects in the same process.
package clone

import "sync"

// Table tracks original-object identity to already-produced clone
// identity, so a Cyclable field that participates in a reference cycle
// (a tree node's parent pointer, a mutual resource dependency) clones
// once and every other occurrence reuses the same clone rather than
// recursing forever or duplicating the object.
type Table struct {
	mu     sync.Mutex
	clones map[any]any
}

// NewTable creates an empty table, scoped to a single top-level Clone
// call.
func NewTable() *Table {
	return &Table{clones: make(map[any]any)}
}

// lookup returns the previously produced clone for ref, if any.
func (t *Table) lookup(ref any) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.clones[ref]
	return c, ok
}

// register associates ref with its clone. Must be called before
// populate runs so a field inside ref's own clone body that refers back
// to ref resolves to the same, still-being-populated clone instead of
// recursing.
func (t *Table) register(ref, clone any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clones[ref] = clone
}

// Deep applies cloneFn to src unconditionally: the default mode, for
// value-shaped fields (structs without identity, primitives wrapped in
// a named type) where there is no sharing to preserve.
func Deep[T any](src T, cloneFn func(T) T) T {
	return cloneFn(src)
}

// Shallow returns src unchanged: the field is a reference or handle the
// clone is meant to keep pointing at the original target.
func Shallow[T any](src T) T {
	return src
}

// Ignore returns T's zero value regardless of src: the field is
// transient, derived, or deliberately not carried into the clone (a
// cached pointer, a frame-local scratch value).
func Ignore[T any](src T) T {
	var zero T
	return zero
}

// Cyclable clones ref through table, the per-field mode for
// pointer-identity data that may appear more than once in the object
// graph being cloned (a parent back-reference, a resource shared by two
// owners). alloc produces an empty clone target; populate fills it in,
// and may itself clone fields that point back at ref.
//
// Cyclable registers the new clone before populate runs, mirroring the
// encode-before-recurse ordering in snapshot.EncodeCyclable /
// DecodeCyclable, for the same reason: it lets a direct self-cycle
// resolve without re-entering populate.
func Cyclable[T any](table *Table, ref T, alloc func() T, populate func(dst T)) T {
	if c, ok := table.lookup(ref); ok {
		return c.(T)
	}
	dst := alloc()
	table.register(ref, dst)
	populate(dst)
	return dst
}
