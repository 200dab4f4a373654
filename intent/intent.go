// Package intent wraps signable payloads in the scope/timestamp envelope that
// the on-chain verifier reconstructs before checking a signature.
package intent

import (
	"fmt"

	"github.com/sealtrust/nautilus-oracle/bcs"
)

// IntentScope identifies the class of message being signed so that a
// signature over one kind of payload can never be replayed as another.
//
// Values are encoded as their discriminant byte. New scopes are appended;
// existing values must never be renumbered.
type IntentScope uint8

const (
	// ProcessData covers dataset and metadata verification results.
	ProcessData IntentScope = iota
)

func (s IntentScope) String() string {
	switch s {
	case ProcessData:
		return "process_data"
	default:
		return fmt.Sprintf("intent_scope(%d)", uint8(s))
	}
}

// Valid reports whether s is a known scope.
func (s IntentScope) Valid() bool {
	return s == ProcessData
}

// IntentMessage is the envelope that gets canonically encoded and signed.
// Field order is part of the wire contract: scope, timestamp, data.
type IntentMessage[T bcs.Marshaler] struct {
	Intent      IntentScope `json:"intent"`
	TimestampMs uint64      `json:"timestamp_ms"`
	Data        T           `json:"data"`
}

// New builds an envelope around data.
func New[T bcs.Marshaler](data T, timestampMs uint64, scope IntentScope) IntentMessage[T] {
	return IntentMessage[T]{
		Intent:      scope,
		TimestampMs: timestampMs,
		Data:        data,
	}
}

func (m IntentMessage[T]) MarshalBCS(e *bcs.Encoder) {
	e.Variant(uint8(m.Intent))
	e.U64(m.TimestampMs)
	e.Value(m.Data)
}

// Encode returns the exact bytes that are signed for m.
func Encode[T bcs.Marshaler](m IntentMessage[T]) []byte {
	return bcs.Marshal(m)
}

// Decode parses bytes produced by Encode. PT is the pointer type of the
// payload, which must know how to read itself back.
func Decode[T bcs.Marshaler, PT interface {
	*T
	bcs.Unmarshaler
}](data []byte) (IntentMessage[T], error) {
	var msg IntentMessage[T]

	d := bcs.NewDecoder(data)
	scope, err := d.Variant()
	if err != nil {
		return msg, fmt.Errorf("decoding intent scope: %w", err)
	}
	msg.Intent = IntentScope(scope)
	if !msg.Intent.Valid() {
		return msg, fmt.Errorf("unknown intent scope %d", scope)
	}

	if msg.TimestampMs, err = d.U64(); err != nil {
		return msg, fmt.Errorf("decoding timestamp: %w", err)
	}

	if err := PT(&msg.Data).UnmarshalBCS(d); err != nil {
		return msg, fmt.Errorf("decoding payload: %w", err)
	}

	if d.Remaining() != 0 {
		return msg, bcs.ErrTrailingBytes
	}
	return msg, nil
}
