package resource

// Loader is a per-requester handle-holder against a Catalog (spec.md
// §4.H). A resource's own Tick implementation may create a sub-Loader
// against the same catalog to discover and await dependencies
// dynamically; since Loader never ticks the catalog itself (only Catalog.
// Tick does, once per frame, from the host's frame orchestrator), nesting
// Loaders this way cannot cause a shared dependency to be ticked twice.
type Loader struct {
	catalog  *Catalog
	keys     []Key
	executed bool
}

// NewLoader creates a Loader against catalog with no requested keys yet.
func NewLoader(catalog *Catalog) *Loader {
	return &Loader{catalog: catalog}
}

// Request records intent to load key. Does not itself touch the catalog;
// Execute submits every requested key at once.
func (l *Loader) Request(key Key) {
	l.keys = append(l.keys, key)
}

// Execute submits every key recorded by Request so far as a load request
// against the catalog, to be applied on the catalog's next Tick. Calling
// Execute more than once re-submits load requests for the same keys
// (increasing the coalesced load count for this tick, matching the
// catalog's net = load_count - unload_count contract rather than being a
// no-op).
func (l *Loader) Execute() {
	for _, k := range l.keys {
		l.catalog.queueLoad(k)
	}
	l.executed = true
}

// Tick reports whether every key this loader has executed is currently
// Loaded. It does not advance the catalog: entries only advance when the
// host calls Catalog.Tick, once per frame.
func (l *Loader) Tick() bool {
	if !l.executed || len(l.keys) == 0 {
		return l.executed
	}
	for _, k := range l.keys {
		state, ok := l.catalog.State(k)
		if !ok || state != Loaded {
			return false
		}
	}
	return true
}

// AllLoaded is an alias for Tick's boolean result, named for call sites
// that want to read catalog state without the "this is the per-frame
// advance" implication Tick's name might suggest (spec.md §4.H phrases
// the contract as "observe all_loaded on subsequent ticks").
func (l *Loader) AllLoaded() bool {
	return l.Tick()
}

// Keys returns the keys this loader has requested, in request order.
func (l *Loader) Keys() []Key {
	out := make([]Key, len(l.keys))
	copy(out, l.keys)
	return out
}

// Dispose queues an unload request for every key this loader has
// executed, and clears its own requested-key list. A Loader that is
// disposed without ever having called Execute queues nothing (there is
// nothing to release).
func (l *Loader) Dispose() {
	if l.executed {
		for _, k := range l.keys {
			l.catalog.queueUnload(k)
		}
	}
	l.keys = nil
	l.executed = false
}
