package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash computes a fast fingerprint of chunk text using an 8-byte
// BLAKE2b digest, hex-encoded. It is a change detector, not a security
// boundary: identical content always yields the identical hash, and any edit
// changes it with overwhelming probability.
func ContentHash(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
