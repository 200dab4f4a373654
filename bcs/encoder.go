package bcs

import (
	"encoding/binary"
)

// Marshaler is implemented by values with a canonical BCS layout.
type Marshaler interface {
	MarshalBCS(e *Encoder)
}

// Encoder accumulates canonical bytes. The zero value is ready to use.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with capacity preallocated for size bytes.
func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

// U8 writes a single byte.
func (e *Encoder) U8(v uint8) {
	e.buf = append(e.buf, v)
}

// U64 writes v as 8 little-endian bytes.
func (e *Encoder) U64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// Variant writes an enum discriminant. Move enums with fewer than 128
// variants always encode to one byte.
func (e *Encoder) Variant(index uint8) {
	e.U8(index)
}

// Bytes writes a length-prefixed byte string (vector<u8>).
func (e *Encoder) Bytes(b []byte) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// Value writes a nested struct in place.
func (e *Encoder) Value(v Marshaler) {
	v.MarshalBCS(e)
}

// Data returns the accumulated bytes. The slice aliases the encoder buffer.
func (e *Encoder) Data() []byte {
	return e.buf
}

// Marshal encodes v into a new byte slice.
func Marshal(v Marshaler) []byte {
	e := NewEncoder(64)
	v.MarshalBCS(e)
	return e.Data()
}
