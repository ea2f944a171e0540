// Package snapshot implements the binary serialization contract described
// in spec.md §4.I and §6: little-endian, self-delimited, fixed-width
// integers, length-prefixed strings and sequences, with an opt-in cycle
// table for graph-shaped data. The core defines no global header or
// on-disk format; a Snapshot is an opaque byte buffer a host chooses to
// persist however it likes.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// nullLength is the sentinel length written in place of a string's i32
// byte count to mean "this string is null", per spec.md §6.
const nullLength = -1

// ErrTruncated is returned when a Decoder runs out of input mid-field.
// Per spec.md §7, a failed deserialization must leave the target object
// in a well-defined state; this package leaves that to the caller (who
// should discard a partially populated target on error) and focuses on
// reporting the failure precisely.
var ErrTruncated = errors.New("snapshot: truncated input")

// Encoder writes a single little-endian, self-delimited byte stream.
type Encoder struct {
	buf    bytes.Buffer
	cycles *CycleTable
}

// NewEncoder creates an Encoder with its own cycle table.
func NewEncoder() *Encoder {
	return &Encoder{cycles: NewCycleTable()}
}

// Bytes returns the encoded stream so far.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Cycles exposes the encoder's cycle table for EncodeCyclable call sites
// that need to pre-check EncodeRef outside the Cyclable helper.
func (e *Encoder) Cycles() *CycleTable {
	return e.cycles
}

func (e *Encoder) WriteInt32(v int32)     { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) WriteInt64(v int64)     { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) WriteUint32(v uint32)   { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) WriteFloat64(v float64) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }

func (e *Encoder) WriteBool(v bool) {
	var b byte
	if v {
		b = 1
	}
	e.buf.WriteByte(b)
}

// WriteString writes valid as an i32 length (nullLength for an invalid/
// absent string) followed by s's UTF-8 bytes. When valid is false, s's
// content is ignored.
func (e *Encoder) WriteString(s string, valid bool) {
	if !valid {
		e.WriteInt32(nullLength)
		return
	}
	e.WriteInt32(int32(len(s)))
	e.buf.WriteString(s)
}

// WriteBytes writes a u32 count followed by b's raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteUint32(uint32(len(b)))
	e.buf.Write(b)
}

// WriteSequenceHeader writes a u32 element count; the caller follows with
// count calls encoding each element.
func (e *Encoder) WriteSequenceHeader(count int) {
	e.WriteUint32(uint32(count))
}

// EncodeCyclable writes ref's cycle-table id, then either a presence flag
// of false with nothing further (ref was already encoded earlier in this
// stream — the decoder will resolve it by id) or a presence flag of true
// followed by encodeBody()'s own writes (the first time ref is seen).
// EncodeCyclable registers ref in the cycle table before encodeBody runs,
// so a field inside ref's own body that refers back to ref (a direct
// self-cycle) can itself use EncodeRef and get the same id without
// recursing into encodeBody again.
func (e *Encoder) EncodeCyclable(ref any, encodeBody func()) {
	id, firstSeen := e.cycles.EncodeRef(ref)
	e.WriteInt32(id)
	e.WriteBool(firstSeen)
	if firstSeen {
		encodeBody()
	}
}

// Decoder reads a stream produced by Encoder.
type Decoder struct {
	r      *bytes.Reader
	cycles *CycleTable
}

// NewDecoder creates a Decoder over data with its own cycle table.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{r: bytes.NewReader(data), cycles: NewCycleTable()}
}

// Cycles exposes the decoder's cycle table.
func (d *Decoder) Cycles() *CycleTable {
	return d.cycles
}

func (d *Decoder) ReadInt32() (int32, error) {
	var v int32
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapTruncated(err)
	}
	return v, nil
}

func (d *Decoder) ReadInt64() (int64, error) {
	var v int64
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapTruncated(err)
	}
	return v, nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	var v uint32
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapTruncated(err)
	}
	return v, nil
}

func (d *Decoder) ReadFloat64() (float64, error) {
	var v float64
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapTruncated(err)
	}
	return v, nil
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return false, wrapTruncated(err)
	}
	return b != 0, nil
}

// ReadString reads the i32-length-prefixed string written by WriteString.
// valid is false (with s == "") iff the stream recorded a null string.
func (d *Decoder) ReadString() (s string, valid bool, err error) {
	n, err := d.ReadInt32()
	if err != nil {
		return "", false, err
	}
	if n == nullLength {
		return "", false, nil
	}
	if n < 0 {
		return "", false, errors.Errorf("snapshot: negative string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", false, wrapTruncated(err)
	}
	return string(buf), true, nil
}

// ReadBytes reads the u32-count-prefixed byte slice written by WriteBytes.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, wrapTruncated(err)
	}
	return buf, nil
}

// ReadSequenceHeader reads the u32 element count written by
// WriteSequenceHeader.
func (d *Decoder) ReadSequenceHeader() (int, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// DecodeCyclable reads a cycle-table id and presence flag written by
// EncodeCyclable. On first occurrence, it calls alloc to create the
// target object, registers it under the decoded id (before decodeBody
// runs, mirroring EncodeCyclable's encode-side ordering), then calls
// decodeBody to populate it. On a later occurrence, it looks the object
// up by id instead of allocating or decoding a body, and returns an error
// if the id is unknown (a corrupt or out-of-order stream).
func (d *Decoder) DecodeCyclable(alloc func() any, decodeBody func(obj any) error) (any, error) {
	id, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	firstSeen, err := d.ReadBool()
	if err != nil {
		return nil, err
	}

	if !firstSeen {
		obj, ok := d.cycles.DecodeLookup(id)
		if !ok {
			return nil, errors.Errorf("snapshot: back-reference to unknown cycle id %d", id)
		}
		return obj, nil
	}

	obj := alloc()
	d.cycles.DecodeRegister(id, obj)
	if err := decodeBody(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func wrapTruncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return errors.Wrap(err, "snapshot: read failed")
}
