package cryptoutils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ContentHashSize is the length of a dataset content hash.
const ContentHashSize = sha256.Size

// ContentHash is the SHA-256 digest of unencrypted dataset content.
func ContentHash(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// DecodeHexHash parses a caller-supplied hex digest, with or without a 0x
// prefix. Length is not checked here; comparison against a computed hash
// rejects digests of the wrong size.
func DecodeHexHash(source string) ([]byte, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(source, "0x"), "0X")
	if clean == "" {
		return nil, fmt.Errorf("empty hex hash")
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}
	return b, nil
}
