package bcs

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when the input ends inside a value.
	ErrUnexpectedEOF = errors.New("bcs: unexpected end of input")

	// ErrTrailingBytes is returned by Unmarshal when input remains after the value.
	ErrTrailingBytes = errors.New("bcs: trailing bytes after value")

	// ErrNonCanonical is returned for length prefixes that are not minimally encoded.
	ErrNonCanonical = errors.New("bcs: non-canonical length prefix")
)

// maxLength mirrors the BCS limit on sequence lengths (2^31 - 1).
const maxLength = 1<<31 - 1

// Unmarshaler is implemented by values that can be read back from their
// canonical layout.
type Unmarshaler interface {
	UnmarshalBCS(d *Decoder) error
}

// Decoder reads canonical values from a byte slice.
type Decoder struct {
	data []byte
	off  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining reports how many bytes have not been consumed yet.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) U8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) U64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) Variant() (uint8, error) {
	return d.U8()
}

// Bytes reads a length-prefixed byte string. The returned slice is a copy.
func (d *Decoder) Bytes() ([]byte, error) {
	length, n := binary.Uvarint(d.data[d.off:])
	if n == 0 {
		return nil, ErrUnexpectedEOF
	}
	if n < 0 {
		return nil, fmt.Errorf("bcs: length prefix overflows u64")
	}
	// Reject padded encodings such as 0x80 0x00 for zero.
	if n > 1 && d.data[d.off+n-1] == 0 {
		return nil, ErrNonCanonical
	}
	if length > maxLength {
		return nil, fmt.Errorf("bcs: sequence length %d exceeds limit", length)
	}
	d.off += n

	b, err := d.take(int(length))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Value reads a nested struct in place.
func (d *Decoder) Value(v Unmarshaler) error {
	return v.UnmarshalBCS(d)
}

// Unmarshal decodes data into v and requires that all input is consumed.
func Unmarshal(data []byte, v Unmarshaler) error {
	d := NewDecoder(data)
	if err := v.UnmarshalBCS(d); err != nil {
		return err
	}
	if d.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}
