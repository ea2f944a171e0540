// Package entity implements the type-erased entity registry described in
// spec.md §4.B: handle → Context lookup, live-entity iteration, and the
// per-frame pending-destroy list consumed by the Cleanup phase.
package entity

import (
	"sync"

	"github.com/lixenwraith/tickframe/handle"
	"github.com/pkg/errors"
)

// ErrUnknownKind is returned (in debug builds, via RegisterStrict) when a
// handle of a kind the registry was never told about is registered. Per
// spec.md §4.B this is a programmer error: fatal in debug, ignored in
// release. Registry exposes both behaviors explicitly rather than picking
// one at compile time for the caller.
var ErrUnknownKind = errors.New("entity: registering handle of unknown kind")

// Context is the opaque per-entity record the registry stores. Host code
// is expected to use Queues to stash attached command-queue instances
// (typed, opaque to the registry) and Collision for whatever spatial
// volume representation the host uses; both are untyped here exactly
// because the registry must not know about any particular entity kind.
type Context struct {
	Owner            handle.Handle
	Queues           map[string]any
	Collision        any
	Alive            bool
	MarkedForCleanup bool
}

// newContext returns an initialized Context for owner.
func newContext(owner handle.Handle) *Context {
	return &Context{
		Owner:  owner,
		Queues: make(map[string]any),
		Alive:  true,
	}
}

// Registry is the type-erased handle registry shared by every arena in a
// World. It does not own entity data (arenas do); it owns cross-kind
// bookkeeping: context lookup, enumeration, and cleanup scheduling.
type Registry struct {
	mu sync.RWMutex

	knownKinds map[handle.Kind]bool
	contexts   map[handle.Handle]*Context
	order      []handle.Handle // stable iteration order

	pending    []handle.Handle
	pendingSet map[handle.Handle]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		knownKinds: make(map[handle.Kind]bool),
		contexts:   make(map[handle.Handle]*Context),
		pendingSet: make(map[handle.Handle]bool),
	}
}

// DeclareKind marks kind as known to the registry. Register on an
// undeclared kind is a programmer error (see RegisterStrict).
func (r *Registry) DeclareKind(kind handle.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knownKinds[kind] = true
}

// Register associates a fresh Context with h. If h's kind was never
// declared via DeclareKind, the registration is ignored (release-mode
// behavior); use RegisterStrict to get the error instead.
func (r *Registry) Register(h handle.Handle) {
	_ = r.RegisterStrict(h)
}

// RegisterStrict is Register but returns ErrUnknownKind instead of
// silently ignoring an undeclared kind, for hosts that want the debug-mode
// behavior spec.md §4.B describes as "fatal in debug".
func (r *Registry) RegisterStrict(h handle.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.knownKinds[h.Kind] {
		return errors.Wrapf(ErrUnknownKind, "kind %d", h.Kind)
	}
	if _, exists := r.contexts[h]; exists {
		return nil
	}
	r.contexts[h] = newContext(h)
	r.order = append(r.order, h)
	return nil
}

// TryGetContext returns the Context for h, or nil and false if h was never
// registered or has since been unregistered.
func (r *Registry) TryGetContext(h handle.Handle) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[h]
	return ctx, ok
}

// AllEntities returns a snapshot of every currently registered handle, in
// registration order.
func (r *Registry) AllEntities() []handle.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]handle.Handle, 0, len(r.order))
	for _, h := range r.order {
		if _, ok := r.contexts[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// MarkForCleanup schedules h for destruction at the next Cleanup phase.
// Idempotent: marking an already-marked or unregistered handle is a no-op.
func (r *Registry) MarkForCleanup(h handle.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, ok := r.contexts[h]
	if !ok || ctx.MarkedForCleanup {
		return
	}
	ctx.MarkedForCleanup = true
	r.pending = append(r.pending, h)
	r.pendingSet[h] = true
}

// IsMarkedForCleanup reports whether h is scheduled for destruction.
func (r *Registry) IsMarkedForCleanup(h handle.Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[h]
	return ok && ctx.MarkedForCleanup
}

// DrainPendingDestroys returns every handle marked for cleanup since the
// last drain and clears the pending list. Called once per tick, from the
// Cleanup phase.
func (r *Registry) DrainPendingDestroys() []handle.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.pending
	r.pending = nil
	r.pendingSet = make(map[handle.Handle]bool)
	return out
}

// Unregister removes h's Context entirely. Called by the Cleanup phase
// after the owning arena has destroyed the underlying slot.
func (r *Registry) Unregister(h handle.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, h)
}
