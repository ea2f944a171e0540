package clone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inventoryItem struct {
	Name  string
	Count int
}

func cloneInventoryItem(src inventoryItem) inventoryItem { return src }

// node mirrors the shape spec.md §4.K calls out: a cyclable
// back-reference (Parent), a deep-cloned value collection (Items), a
// shallow reference field (Shared, meant to keep pointing at the same
// target), and an ignored scratch field (Cache).
type node struct {
	Name   string
	Parent *node
	Items  []inventoryItem
	Shared *inventoryItem
	Cache  map[string]int
}

func cloneNode(table *Table, src *node) *node {
	return Cyclable(table, src,
		func() *node { return &node{} },
		func(dst *node) {
			dst.Name = Deep(src.Name, func(s string) string { return s })
			dst.Items = Slice(src.Items, cloneInventoryItem)
			dst.Shared = Shallow(src.Shared)
			dst.Cache = Ignore[map[string]int](src.Cache)
			if src.Parent != nil {
				dst.Parent = cloneNode(table, src.Parent)
			}
		},
	)
}

func TestDeepClonesValueFieldsIndependently(t *testing.T) {
	src := &node{Name: "root", Items: []inventoryItem{{Name: "sword", Count: 1}}}
	table := NewTable()
	dst := cloneNode(table, src)

	require.Equal(t, src.Name, dst.Name)
	require.Equal(t, src.Items, dst.Items)

	dst.Items[0].Count = 99
	assert.Equal(t, 1, src.Items[0].Count, "cloned slice must not alias the source's backing array")
}

func TestShallowPreservesSharedIdentity(t *testing.T) {
	item := &inventoryItem{Name: "shared-key", Count: 1}
	src := &node{Name: "a", Shared: item}
	table := NewTable()
	dst := cloneNode(table, src)

	assert.Same(t, item, dst.Shared, "Shallow field must keep pointing at the original target")
}

func TestIgnoreResetsToZeroValue(t *testing.T) {
	src := &node{Name: "a", Cache: map[string]int{"x": 1}}
	table := NewTable()
	dst := cloneNode(table, src)

	assert.Nil(t, dst.Cache)
}

func TestCyclableParentBackReferenceClonesOnce(t *testing.T) {
	parent := &node{Name: "root"}
	child := &node{Name: "leaf", Parent: parent}
	parent.Items = []inventoryItem{{Name: "root-item", Count: 2}}

	table := NewTable()
	clonedChild := cloneNode(table, child)
	clonedParentViaField := clonedChild.Parent

	clonedParentDirect := cloneNode(table, parent)

	assert.NotSame(t, parent, clonedChild.Parent, "clone must not alias the original")
	assert.Same(t, clonedParentViaField, clonedParentDirect, "a second clone of the same original object must reuse the first clone from the table")
}

func TestSetAndMapClonePreserveMembership(t *testing.T) {
	src := map[string]struct{}{"a": {}, "b": {}}
	dst := Set(src, func(s string) string { return s })
	assert.Equal(t, src, dst)

	dst["c"] = struct{}{}
	assert.NotContains(t, src, "c", "cloned set must not alias the source map")

	m := map[string]int{"a": 1}
	dm := Map(m, func(k string) string { return k }, func(v int) int { return v })
	assert.Equal(t, m, dm)
	dm["a"] = 2
	assert.Equal(t, 1, m["a"])
}

func TestJaggedClonesEachRowIndependently(t *testing.T) {
	src := [][]int{{1, 2}, {3}}
	dst := Jagged(src, func(v int) int { return v })
	require.Equal(t, src, dst)

	dst[0][0] = 99
	assert.Equal(t, 1, src[0][0])
}
