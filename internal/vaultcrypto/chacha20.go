package vaultcrypto

import "encoding/binary"

// KeySize is the ChaCha20 key size in bytes (256 bits).
const KeySize = 32

// BlockSize is the size of one ChaCha20 keystream block in bytes.
const BlockSize = 64

// chacha20 here is the original Bernstein construction, not the IETF
// variant: a 64-bit nonce and a 64-bit block counter packed into the last
// four state words, rather than IETF's 96-bit nonce / 32-bit counter.
// golang.org/x/crypto/chacha20 only implements the IETF and XChaCha20
// layouts, neither of which matches the container's wire format, so the
// block function is reproduced here directly from RFC 8439 §2.3.
var sigma = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}

// Cipher is a ChaCha20 stream transform keyed by a 256-bit key and a 64-bit
// nonce, with an explicitly settable 64-bit block counter. Transform can be
// called repeatedly; the counter advances across calls unless SetBlockIndex
// is used to seek to an explicit block ("unbuffered" mode in spec terms).
type Cipher struct {
	key     [8]uint32
	nonce   uint64
	counter uint64
}

// NewCipher constructs a Cipher for key and nonce, with the block counter
// starting at 0.
func NewCipher(key [KeySize]byte, nonce uint64) *Cipher {
	c := &Cipher{nonce: nonce}
	for i := 0; i < 8; i++ {
		c.key[i] = binary.LittleEndian.Uint32(key[i*4 : i*4+4])
	}
	return c
}

// SetBlockIndex seeks the cipher to start the next Transform at the given
// block index, without touching the key or nonce. This is the "unbuffered"
// mode used to derive independent keystream slices for field masking.
func (c *Cipher) SetBlockIndex(block uint64) {
	c.counter = block
}

// Transform XORs src with the ChaCha20 keystream into dst (which may alias
// src for in-place use), advancing the block counter by the number of
// blocks consumed.
func (c *Cipher) Transform(dst, src []byte) {
	var block [BlockSize]byte

	for len(src) > 0 {
		c.block(&block)
		c.counter++

		n := len(src)
		if n > BlockSize {
			n = BlockSize
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ block[i]
		}
		dst = dst[n:]
		src = src[n:]
	}
}

// block computes one 64-byte keystream block at the current counter value.
func (c *Cipher) block(out *[BlockSize]byte) {
	var state [16]uint32
	state[0], state[1], state[2], state[3] = sigma[0], sigma[1], sigma[2], sigma[3]
	copy(state[4:12], c.key[:])
	state[12] = uint32(c.counter)
	state[13] = uint32(c.counter >> 32)
	state[14] = uint32(c.nonce)
	state[15] = uint32(c.nonce >> 32)

	working := state

	for i := 0; i < 10; i++ {
		quarterRound(&working, 0, 4, 8, 12)
		quarterRound(&working, 1, 5, 9, 13)
		quarterRound(&working, 2, 6, 10, 14)
		quarterRound(&working, 3, 7, 11, 15)
		quarterRound(&working, 0, 5, 10, 15)
		quarterRound(&working, 1, 6, 11, 12)
		quarterRound(&working, 2, 7, 8, 13)
		quarterRound(&working, 3, 4, 9, 14)
	}

	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], working[i]+state[i])
	}
}

func quarterRound(s *[16]uint32, a, b, c, d int) {
	s[a] += s[b]
	s[d] ^= s[a]
	s[d] = rotl32(s[d], 16)

	s[c] += s[d]
	s[b] ^= s[c]
	s[b] = rotl32(s[b], 12)

	s[a] += s[b]
	s[d] ^= s[a]
	s[d] = rotl32(s[d], 8)

	s[c] += s[d]
	s[b] ^= s[c]
	s[b] = rotl32(s[b], 7)
}

func rotl32(x uint32, n uint) uint32 {
	return (x << n) | (x >> (32 - n))
}
