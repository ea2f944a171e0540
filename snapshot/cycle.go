package snapshot

import "sync"

// CycleTable tracks original-reference identity during encode, and
// assigned-id-to-decoded-object identity during decode, so a structural
// copy of a graph with back-references (e.g. a tree node's parent
// pointer) can round-trip without infinite recursion. Grounded on the
// map-based visited/cycle-tracking idiom in
// roach88-nysm/brutalist/internal/engine/cycle.go, adapted from "has this
// (sync, binding) pair fired" tracking to "has this reference already
// been serialized".
//
// Cycle tracking is opt-in per field per spec.md §4.I: a codec caller
// decides, field by field, whether to route a reference through
// EncodeRef and DecodeRegister/DecodeLookup (Cyclable, usually via
// Encoder.EncodeCyclable and Decoder.DecodeCyclable) or to encode/decode
// it inline every time (Deep).
type CycleTable struct {
	mu sync.Mutex

	encodeIDs map[any]int32
	nextID    int32

	decodeObjs map[int32]any
}

// NewCycleTable creates an empty table, usable for a single
// encode-then-decode round trip or for an encode-only / decode-only pass.
func NewCycleTable() *CycleTable {
	return &CycleTable{
		encodeIDs:  make(map[any]int32),
		decodeObjs: make(map[int32]any),
	}
}

// EncodeRef returns the id previously assigned to ref, or assigns and
// returns a fresh one. firstSeen is true iff this is the first time ref
// has been passed to EncodeRef on this table — the caller should only
// serialize ref's body when firstSeen is true, writing just the id
// otherwise.
func (t *CycleTable) EncodeRef(ref any) (id int32, firstSeen bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.encodeIDs[ref]; ok {
		return id, false
	}
	id = t.nextID
	t.nextID++
	t.encodeIDs[ref] = id
	return id, true
}

// DecodeRegister associates id with obj. Must be called before decoding
// obj's body, so a reference to id nested inside obj's own body (a direct
// self-cycle) resolves to the same, still-being-populated object instead
// of recursing.
func (t *CycleTable) DecodeRegister(id int32, obj any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decodeObjs[id] = obj
}

// DecodeLookup returns the object previously registered under id.
func (t *CycleTable) DecodeLookup(id int32) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obj, ok := t.decodeObjs[id]
	return obj, ok
}
