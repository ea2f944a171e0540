package entity

import (
	"testing"

	"github.com/lixenwraith/tickframe/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKind handle.Kind = 1

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.DeclareKind(testKind)

	h := handle.Handle{Index: 0, Generation: 0, Kind: testKind}
	r.Register(h)

	ctx, ok := r.TryGetContext(h)
	require.True(t, ok)
	assert.True(t, ctx.Alive)
	assert.False(t, ctx.MarkedForCleanup)
}

func TestRegisterUnknownKindIgnoredInRelease(t *testing.T) {
	r := NewRegistry()
	h := handle.Handle{Index: 0, Generation: 0, Kind: testKind}
	r.Register(h)

	_, ok := r.TryGetContext(h)
	assert.False(t, ok)
}

func TestRegisterStrictUnknownKindErrors(t *testing.T) {
	r := NewRegistry()
	h := handle.Handle{Index: 0, Generation: 0, Kind: testKind}
	err := r.RegisterStrict(h)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestMarkForCleanupIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.DeclareKind(testKind)
	h := handle.Handle{Index: 0, Generation: 0, Kind: testKind}
	r.Register(h)

	r.MarkForCleanup(h)
	r.MarkForCleanup(h)

	pending := r.DrainPendingDestroys()
	assert.Len(t, pending, 1, "marking twice must not duplicate the pending entry")
}

func TestDrainPendingDestroysClearsList(t *testing.T) {
	r := NewRegistry()
	r.DeclareKind(testKind)
	h := handle.Handle{Index: 0, Generation: 0, Kind: testKind}
	r.Register(h)
	r.MarkForCleanup(h)

	first := r.DrainPendingDestroys()
	require.Len(t, first, 1)

	second := r.DrainPendingDestroys()
	assert.Empty(t, second)
}

func TestUnregisterRemovesContext(t *testing.T) {
	r := NewRegistry()
	r.DeclareKind(testKind)
	h := handle.Handle{Index: 0, Generation: 0, Kind: testKind}
	r.Register(h)
	r.Unregister(h)

	_, ok := r.TryGetContext(h)
	assert.False(t, ok)
}

func TestAllEntitiesSnapshot(t *testing.T) {
	r := NewRegistry()
	r.DeclareKind(testKind)
	h1 := handle.Handle{Index: 0, Generation: 0, Kind: testKind}
	h2 := handle.Handle{Index: 1, Generation: 0, Kind: testKind}
	r.Register(h1)
	r.Register(h2)

	all := r.AllEntities()
	assert.ElementsMatch(t, []handle.Handle{h1, h2}, all)
}
