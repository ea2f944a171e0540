// Package resource implements the reference-counted resource loader
// described in spec.md §4.H: a Catalog owning ref-counted entries and
// their load/unload lifecycle, same-tick load/unload coalescing, and
// per-requester Loaders that can themselves discover and wait on
// dependencies from inside a resource's own tick. Grounded on the
// teacher's registry/registry.go (map+mutex named-factory registration,
// generalized here to ref-counted entries) and engine/resources.go
// (typed registry access pattern, generalized to string keys).
package resource

import "github.com/pkg/errors"

// State is the lifecycle stage of a catalog entry.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Key identifies a loadable resource within a Catalog.
type Key string

// Resource is the host-supplied behavior a catalog entry wraps: how to
// begin loading, how to release, and how to advance a Loading/Failed
// entry by one catalog tick.
type Resource interface {
	// Start begins loading. Called exactly once per 0->1 ref-count
	// transition.
	Start()
	// Unload releases. Called exactly once per 1->0 ref-count transition.
	Unload()
	// Tick advances a Loading or Failed entry by one catalog tick,
	// returning the entry's new state. May itself spawn a sub-Loader
	// against catalog to discover and await dependencies (spec.md §4.H
	// "dynamic dependency").
	Tick(catalog *Catalog) State
}

// ErrUnregistered is returned when an operation targets a key the catalog
// does not know about.
var ErrUnregistered = errors.New("resource: key not registered")

// ErrStillReferenced is returned by Unregister when the entry's ref count
// is still positive.
var ErrStillReferenced = errors.New("resource: key still referenced")
