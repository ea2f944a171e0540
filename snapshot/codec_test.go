package snapshot

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	enc := NewEncoder()
	enc.WriteInt32(-7)
	enc.WriteInt64(1 << 40)
	enc.WriteUint32(4242)
	enc.WriteFloat64(3.5)
	enc.WriteBool(true)
	enc.WriteString("hello", true)
	enc.WriteString("", false)
	enc.WriteBytes([]byte{1, 2, 3})

	dec := NewDecoder(enc.Bytes())

	i32, err := dec.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i32)

	i64, err := dec.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), i64)

	u32, err := dec.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(4242), u32)

	f64, err := dec.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, 3.5, f64)

	b, err := dec.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	s, valid, err := dec.ReadString()
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "hello", s)

	s, valid, err = dec.ReadString()
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, "", s)

	raw, err := dec.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)
}

func TestTruncatedStreamReportsError(t *testing.T) {
	enc := NewEncoder()
	enc.WriteInt32(1)
	raw := enc.Bytes()[:2] // chop the int32 in half

	_, err := NewDecoder(raw).ReadInt32()
	assert.ErrorIs(t, err, ErrTruncated)
}

// TestSequenceRoundTrip is the retrieved pack's goldie harness pattern
// (roach88-nysm/brutalist/internal/harness/golden.go) applied to the
// snapshot codec: a deterministic summary of round-tripped data is
// checked against a fixture file.
func TestSequenceRoundTrip(t *testing.T) {
	data := []string{"root", "childA", "childB"}

	enc := NewEncoder()
	enc.WriteSequenceHeader(len(data))
	for _, s := range data {
		enc.WriteString(s, true)
	}

	dec := NewDecoder(enc.Bytes())
	n, err := dec.ReadSequenceHeader()
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	got := make([]string, n)
	for i := 0; i < n; i++ {
		s, valid, err := dec.ReadString()
		require.NoError(t, err)
		require.True(t, valid)
		got[i] = s
	}
	require.Equal(t, data, got)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "sequence_roundtrip", []byte(strings.Join(got, ",")+"\n"))
}

// parentChild is a two-node graph with a back-reference (child -> parent),
// the shape spec.md §4.I calls out explicitly ("tree nodes with parent
// back-references").
type parentChild struct {
	name     string
	parent   *parentChild
	children []*parentChild
}

func encodeNode(enc *Encoder, n *parentChild) {
	enc.EncodeCyclable(n, func() {
		enc.WriteString(n.name, true)
		if n.parent != nil {
			enc.WriteBool(true)
			encodeNode(enc, n.parent)
		} else {
			enc.WriteBool(false)
		}
		enc.WriteSequenceHeader(len(n.children))
		for _, c := range n.children {
			encodeNode(enc, c)
		}
	})
}

func decodeNode(dec *Decoder) (*parentChild, error) {
	obj, err := dec.DecodeCyclable(
		func() any { return &parentChild{} },
		func(obj any) error {
			n := obj.(*parentChild)
			name, _, err := dec.ReadString()
			if err != nil {
				return err
			}
			n.name = name

			hasParent, err := dec.ReadBool()
			if err != nil {
				return err
			}
			if hasParent {
				parent, err := decodeNode(dec)
				if err != nil {
					return err
				}
				n.parent = parent
			}

			count, err := dec.ReadSequenceHeader()
			if err != nil {
				return err
			}
			n.children = make([]*parentChild, count)
			for i := 0; i < count; i++ {
				child, err := decodeNode(dec)
				if err != nil {
					return err
				}
				n.children[i] = child
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return obj.(*parentChild), nil
}

// TestCyclableBackReferenceRoundTrip exercises EncodeCyclable/DecodeCyclable
// against a parent<->child cycle: the child's parent field and the
// parent's children slice both end up pointing at the same two decoded
// objects, rather than an infinite unrolling of the cycle.
func TestCyclableBackReferenceRoundTrip(t *testing.T) {
	parent := &parentChild{name: "root"}
	child := &parentChild{name: "leaf", parent: parent}
	parent.children = []*parentChild{child}

	enc := NewEncoder()
	encodeNode(enc, parent)

	dec := NewDecoder(enc.Bytes())
	got, err := decodeNode(dec)
	require.NoError(t, err)

	assert.Equal(t, "root", got.name)
	require.Len(t, got.children, 1)
	assert.Equal(t, "leaf", got.children[0].name)
	assert.Same(t, got, got.children[0].parent, "the child's decoded parent pointer must be the same object as the root, not a re-decoded copy")
}
