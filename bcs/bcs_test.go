package bcs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Tag   uint8
	Name  []byte
	Count uint64
}

func (r *testRecord) MarshalBCS(e *Encoder) {
	e.U8(r.Tag)
	e.Bytes(r.Name)
	e.U64(r.Count)
}

func (r *testRecord) UnmarshalBCS(d *Decoder) (err error) {
	if r.Tag, err = d.U8(); err != nil {
		return err
	}
	if r.Name, err = d.Bytes(); err != nil {
		return err
	}
	r.Count, err = d.U64()
	return err
}

func TestEncoder_FixedWidthLittleEndian(t *testing.T) {
	e := NewEncoder(0)
	e.U64(1700000000000)
	assert.Equal(t, []byte{0x00, 0x68, 0xe5, 0xcf, 0x8b, 0x01, 0x00, 0x00}, e.Data())

	e = NewEncoder(0)
	e.U8(0xff)
	e.Variant(0)
	assert.Equal(t, []byte{0xff, 0x00}, e.Data())
}

func TestEncoder_LengthPrefix(t *testing.T) {
	tests := []struct {
		name   string
		length int
		prefix []byte
	}{
		{"empty", 0, []byte{0x00}},
		{"single byte", 4, []byte{0x04}},
		{"largest single byte", 127, []byte{0x7f}},
		{"two bytes", 128, []byte{0x80, 0x01}},
		{"three hundred", 300, []byte{0xac, 0x02}},
		{"three bytes", 16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder(0)
			e.Bytes(bytes.Repeat([]byte{0xab}, tt.length))
			out := e.Data()
			require.Len(t, out, len(tt.prefix)+tt.length)
			assert.Equal(t, tt.prefix, out[:len(tt.prefix)])
		})
	}
}

func TestMarshal_StructFieldOrder(t *testing.T) {
	r := &testRecord{Tag: 7, Name: []byte("CSV"), Count: 2}
	assert.Equal(t, []byte{0x07, 0x03, 'C', 'S', 'V', 0x02, 0, 0, 0, 0, 0, 0, 0}, Marshal(r))
}

func TestUnmarshal_RoundTrip(t *testing.T) {
	in := &testRecord{Tag: 1, Name: bytes.Repeat([]byte("x"), 200), Count: 1<<64 - 1}
	var out testRecord
	require.NoError(t, Unmarshal(Marshal(in), &out))
	assert.Equal(t, *in, out)
}

func TestUnmarshal_Errors(t *testing.T) {
	valid := Marshal(&testRecord{Tag: 1, Name: []byte("abc"), Count: 5})

	t.Run("truncated", func(t *testing.T) {
		var out testRecord
		assert.ErrorIs(t, Unmarshal(valid[:len(valid)-1], &out), ErrUnexpectedEOF)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		var out testRecord
		assert.ErrorIs(t, Unmarshal(append(valid, 0x00), &out), ErrTrailingBytes)
	})

	t.Run("length beyond input", func(t *testing.T) {
		var out testRecord
		assert.ErrorIs(t, Unmarshal([]byte{0x01, 0x05, 'a'}, &out), ErrUnexpectedEOF)
	})

	t.Run("non-canonical length", func(t *testing.T) {
		d := NewDecoder([]byte{0x80, 0x00})
		_, err := d.Bytes()
		assert.ErrorIs(t, err, ErrNonCanonical)
	})
}
