package resource

import (
	"sync"

	"github.com/lixenwraith/tickframe/status"
)

// entry is one catalog-managed resource and its ref-counted lifecycle.
type entry struct {
	resource Resource
	state    State
	refCount int

	loadReqs   int
	unloadReqs int
}

// Catalog owns every registered resource's lifecycle: ref counting,
// same-tick load/unload coalescing, and per-tick advancement of any entry
// currently Loading or Failed. Register/Unregister/Request are guarded by
// a catalog-wide mutex; Tick itself runs on the simulation thread only
// (spec.md §5 "Shared-resource policy").
type Catalog struct {
	mu      sync.Mutex
	entries map[Key]*entry

	statResourceLoaded *status.AtomicFloat
}

// NewCatalog creates an empty catalog with no metrics wiring.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[Key]*entry)}
}

// NewCatalogWithStatus creates an empty catalog that writes the
// "resource.loaded" gauge into reg on every Tick (spec.md §3's repurposed
// metrics facade).
func NewCatalogWithStatus(reg *status.Registry) *Catalog {
	c := &Catalog{entries: make(map[Key]*entry)}
	if reg != nil {
		c.statResourceLoaded = reg.Floats.Get("resource.loaded")
	}
	return c
}

// Register adds a resource under key in the Unloaded state with a zero ref
// count. Re-registering an existing key replaces its Resource only if the
// entry is currently Unloaded and unreferenced.
func (c *Catalog) Register(key Key, res Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if e.refCount == 0 && e.state == Unloaded {
			e.resource = res
		}
		return
	}
	c.entries[key] = &entry{resource: res, state: Unloaded}
}

// Unregister removes key from the catalog. Returns ErrStillReferenced
// (and leaves the entry in place) if its ref count is positive, and
// ErrUnregistered if key was never registered.
func (c *Catalog) Unregister(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return ErrUnregistered
	}
	if e.refCount > 0 {
		return ErrStillReferenced
	}
	delete(c.entries, key)
	return nil
}

// State returns key's current lifecycle state and whether key is
// registered at all.
func (c *Catalog) State(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Unloaded, false
	}
	return e.state, true
}

// RefCount returns key's current reference count (zero if unregistered).
func (c *Catalog) RefCount(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return 0
	}
	return e.refCount
}

// queueLoad records one pending +1 ref request against key, to be applied
// (and coalesced against any pending unload requests) on the next Tick.
func (c *Catalog) queueLoad(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.loadReqs++
	}
}

// queueUnload is queueLoad's mirror: one pending -1 ref request.
func (c *Catalog) queueUnload(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.unloadReqs++
	}
}

// Tick processes one frame's worth of queued load/unload requests with
// same-tick coalescing (spec.md §4.H: net = load_count - unload_count; if
// net == 0 the entry's ref count and state are both left untouched, even
// though it saw both a load and an unload request this tick), then
// advances every Loading or Failed entry by one call to its Resource's
// Tick.
func (c *Catalog) Tick() {
	c.mu.Lock()
	toStart := make([]Key, 0)
	toUnload := make([]Key, 0)
	toAdvance := make([]Key, 0)

	for key, e := range c.entries {
		net := e.loadReqs - e.unloadReqs
		e.loadReqs, e.unloadReqs = 0, 0
		if net == 0 {
			continue
		}

		before := e.refCount
		e.refCount += net
		if e.refCount < 0 {
			e.refCount = 0
		}

		if before == 0 && e.refCount > 0 {
			toStart = append(toStart, key)
		} else if before > 0 && e.refCount == 0 {
			toUnload = append(toUnload, key)
		}
	}

	for key, e := range c.entries {
		if e.state == Loading || e.state == Failed {
			toAdvance = append(toAdvance, key)
		}
	}
	c.mu.Unlock()

	for _, key := range toStart {
		c.startLocked(key)
	}
	for _, key := range toUnload {
		c.unloadLocked(key)
	}
	for _, key := range toAdvance {
		c.advanceLocked(key)
	}

	if c.statResourceLoaded != nil {
		c.statResourceLoaded.Set(float64(c.countLoaded()))
	}
}

// countLoaded returns how many entries currently sit in the Loaded state —
// the "resource.loaded" gauge's value.
func (c *Catalog) countLoaded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.state == Loaded {
			n++
		}
	}
	return n
}

func (c *Catalog) startLocked(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.state = Loading
	res := e.resource
	c.mu.Unlock()

	res.Start()
}

func (c *Catalog) unloadLocked(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	res := e.resource
	e.state = Unloaded
	c.mu.Unlock()

	res.Unload()
}

func (c *Catalog) advanceLocked(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	res := e.resource
	c.mu.Unlock()

	newState := res.Tick(c)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.state = newState
	}
	c.mu.Unlock()
}
