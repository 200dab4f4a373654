package intent

import (
	"testing"

	"github.com/sealtrust/nautilus-oracle/bcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Hash      []byte
	Timestamp uint64
}

func (p samplePayload) MarshalBCS(e *bcs.Encoder) {
	e.Bytes(p.Hash)
	e.U64(p.Timestamp)
}

func (p *samplePayload) UnmarshalBCS(d *bcs.Decoder) (err error) {
	if p.Hash, err = d.Bytes(); err != nil {
		return err
	}
	p.Timestamp, err = d.U64()
	return err
}

func TestIntentScope_Discriminant(t *testing.T) {
	e := bcs.NewEncoder(1)
	e.Variant(uint8(ProcessData))
	assert.Equal(t, []byte{0x00}, e.Data())
	assert.Equal(t, "process_data", ProcessData.String())
	assert.True(t, ProcessData.Valid())
	assert.False(t, IntentScope(9).Valid())
}

func TestEncode_Layout(t *testing.T) {
	msg := New(samplePayload{Hash: []byte{0xaa, 0xbb}, Timestamp: 1}, 1700000000000, ProcessData)

	expected := []byte{
		0x00,                                           // scope
		0x00, 0x68, 0xe5, 0xcf, 0x8b, 0x01, 0x00, 0x00, // timestamp_ms
		0x02, 0xaa, 0xbb, // hash
		0x01, 0, 0, 0, 0, 0, 0, 0, // payload timestamp
	}
	assert.Equal(t, expected, Encode(msg))
}

func TestEncode_Deterministic(t *testing.T) {
	a := New(samplePayload{Hash: []byte{1, 2, 3}, Timestamp: 42}, 100, ProcessData)
	b := New(samplePayload{Hash: []byte{1, 2, 3}, Timestamp: 42}, 100, ProcessData)
	assert.Equal(t, Encode(a), Encode(b))
}

func TestEncode_TimestampChangesOutput(t *testing.T) {
	payload := samplePayload{Hash: []byte{1}, Timestamp: 1}
	assert.NotEqual(t,
		Encode(New(payload, 1000, ProcessData)),
		Encode(New(payload, 2000, ProcessData)))
}

func TestDecode_RoundTrip(t *testing.T) {
	msg := New(samplePayload{Hash: []byte("digest"), Timestamp: 7}, 1234, ProcessData)

	decoded, err := Decode[samplePayload](Encode(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestDecode_Errors(t *testing.T) {
	encoded := Encode(New(samplePayload{Hash: []byte("x"), Timestamp: 1}, 1, ProcessData))

	_, err := Decode[samplePayload](encoded[:5])
	assert.Error(t, err)

	bad := append([]byte{}, encoded...)
	bad[0] = 0x05
	_, err = Decode[samplePayload](bad)
	assert.ErrorContains(t, err, "unknown intent scope")

	_, err = Decode[samplePayload](append(encoded, 0x01))
	assert.ErrorIs(t, err, bcs.ErrTrailingBytes)
}
