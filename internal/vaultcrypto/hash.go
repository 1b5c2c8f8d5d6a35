// Package vaultcrypto provides the cryptographic primitives the vault engine
// is built on: a SHA3-256 hasher, a ChaCha20 stream cipher using the
// original 64-bit-nonce/64-bit-counter construction, a Keccak-sponge CSPRNG,
// and a best-effort memory scrubber.
package vaultcrypto

import (
	"golang.org/x/crypto/sha3"
)

// HashSize is the output size of the SHA3-256 hasher in bytes.
const HashSize = 32

// Hasher is a streaming SHA3-256 hash. The zero value is not usable; use
// NewHasher or NewKeyedHasher.
type Hasher struct {
	h sha3Hash
}

// sha3Hash is the subset of hash.Hash that sha3.New256 satisfies, named here
// so Hasher doesn't need to import "hash" just to embed the interface.
type sha3Hash interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
	Reset()
	Size() int
	BlockSize() int
}

// NewHasher returns an unkeyed streaming SHA3-256 hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha3.New256()}
}

// NewKeyedHasher returns a streaming SHA3-256 hasher primed with key as a
// MAC: the key bytes are absorbed as the first Update call. This matches
// the container codec's MAC construction, SHA3-256(mac_key || data...).
func NewKeyedHasher(key []byte) *Hasher {
	h := NewHasher()
	h.Update(key)
	return h
}

// Update feeds more bytes into the hash state.
func (h *Hasher) Update(p []byte) {
	h.h.Write(p)
}

// Finish returns the full 32-byte digest without mutating further state.
func (h *Hasher) Finish() [HashSize]byte {
	var out [HashSize]byte
	copy(out[:], h.h.Sum(nil))
	return out
}

// Sum256 is a one-shot convenience wrapper around Hasher for callers that
// don't need streaming updates.
func Sum256(parts ...[]byte) [HashSize]byte {
	h := NewHasher()
	for _, p := range parts {
		h.Update(p)
	}
	return h.Finish()
}
