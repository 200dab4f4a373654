// Package ephemeral holds the signing key generated when the enclave boots.
//
// The private key exists only in process memory. A restart produces a new key
// and every attestation issued for the previous key becomes stale, so the new
// public key has to be registered on-chain again.
package ephemeral

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// suiEd25519Flag is the signature scheme flag Sui prepends before hashing a
// public key into an address.
const suiEd25519Flag = 0x00

// KeyContext is immutable after New returns and is safe for concurrent use.
type KeyContext struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// New generates a fresh key pair from r, or from crypto/rand when r is nil.
// Failure means the process has no usable entropy and must not start.
func New(r io.Reader) (*KeyContext, error) {
	if r == nil {
		r = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}
	return &KeyContext{priv: priv, pub: pub}, nil
}

// PublicKey returns a copy of the 32-byte Ed25519 public key.
func (k *KeyContext) PublicKey() ed25519.PublicKey {
	out := make(ed25519.PublicKey, len(k.pub))
	copy(out, k.pub)
	return out
}

// PublicKeyHex is the hex form used in logs and health responses.
func (k *KeyContext) PublicKeyHex() string {
	return hex.EncodeToString(k.pub)
}

// Sign returns the Ed25519 signature over msg exactly as given.
func (k *KeyContext) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// Verify checks sig over msg against this context's public key.
func (k *KeyContext) Verify(msg, sig []byte) bool {
	return ed25519.Verify(k.pub, msg, sig)
}

// SuiAddress is the 0x-prefixed Sui address derived from the public key.
func (k *KeyContext) SuiAddress() string {
	return SuiAddress(k.pub)
}

// SuiAddress derives blake2b-256(flag || pubkey) for an Ed25519 key.
func SuiAddress(pub ed25519.PublicKey) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{suiEd25519Flag})
	h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
