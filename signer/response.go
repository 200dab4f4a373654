// Package signer turns a payload into the signed response bundle returned to
// callers and later submitted on-chain.
package signer

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sealtrust/nautilus-oracle/bcs"
	"github.com/sealtrust/nautilus-oracle/intent"
)

// ErrInvalidSignature is returned by Verify when the signature does not match
// the re-encoded payload.
var ErrInvalidSignature = errors.New("signature does not verify against payload")

// KeyContext is the part of the ephemeral key context the signer needs.
type KeyContext interface {
	PublicKey() ed25519.PublicKey
	Sign(msg []byte) []byte
}

// ProcessedDataResponse is returned for every successful verification.
// Payload is the unsigned envelope so the caller can read it and rebuild the
// exact signed bytes.
type ProcessedDataResponse[T bcs.Marshaler] struct {
	Payload   intent.IntentMessage[T] `json:"payload"`
	Signature hexutil.Bytes           `json:"signature"`
	PublicKey hexutil.Bytes           `json:"public_key"`
}

// ToSignedResponse wraps payload in an intent envelope, signs its canonical
// encoding and bundles the result with the signing public key.
func ToSignedResponse[T bcs.Marshaler](key KeyContext, payload T, timestampMs uint64, scope intent.IntentScope) *ProcessedDataResponse[T] {
	msg := intent.New(payload, timestampMs, scope)
	signingPayload := intent.Encode(msg)

	return &ProcessedDataResponse[T]{
		Payload:   msg,
		Signature: key.Sign(signingPayload),
		PublicKey: hexutil.Bytes(key.PublicKey()),
	}
}

// SigningPayload returns the bytes that were signed for resp.
func (resp *ProcessedDataResponse[T]) SigningPayload() []byte {
	return intent.Encode(resp.Payload)
}

// Verify re-encodes the payload and checks the signature against the public
// key carried in the response. Callers that pinned an attested key should
// compare it with resp.PublicKey separately.
func Verify[T bcs.Marshaler](resp *ProcessedDataResponse[T]) error {
	if len(resp.PublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key length %d", len(resp.PublicKey))
	}
	if !ed25519.Verify(ed25519.PublicKey(resp.PublicKey), resp.SigningPayload(), resp.Signature) {
		return ErrInvalidSignature
	}
	return nil
}
