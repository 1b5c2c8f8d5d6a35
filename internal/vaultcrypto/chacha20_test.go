package vaultcrypto

import (
	"bytes"
	"testing"
)

func TestCipherIsInvolutive(t *testing.T) {
	var key [KeySize]byte
	for i := range key {
		key[i] = byte(i)
	}
	const nonce = 0xAABBCCDD11223344

	plaintext := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 5)

	ciphertext := make([]byte, len(plaintext))
	NewCipher(key, nonce).Transform(ciphertext, plaintext)

	recovered := make([]byte, len(ciphertext))
	NewCipher(key, nonce).Transform(recovered, ciphertext)

	if !bytes.Equal(plaintext, recovered) {
		t.Fatalf("chacha20 transform was not involutive")
	}
}

func TestCipherDifferentNoncesDiffer(t *testing.T) {
	var key [KeySize]byte
	plaintext := make([]byte, 128)

	a := make([]byte, len(plaintext))
	NewCipher(key, 1).Transform(a, plaintext)

	b := make([]byte, len(plaintext))
	NewCipher(key, 2).Transform(b, plaintext)

	if bytes.Equal(a, b) {
		t.Fatalf("keystreams under different nonces were identical")
	}
}

func TestSetBlockIndexMatchesEquivalentOffsetTransform(t *testing.T) {
	var key [KeySize]byte
	for i := range key {
		key[i] = byte(i * 7)
	}
	const nonce = 99

	// Transform two blocks' worth from block 0, then compare the second
	// block's worth against seeking directly to block index 1.
	plaintext := bytes.Repeat([]byte{0}, BlockSize*2)
	full := make([]byte, len(plaintext))
	NewCipher(key, nonce).Transform(full, plaintext)

	seeked := make([]byte, BlockSize)
	c := NewCipher(key, nonce)
	c.SetBlockIndex(1)
	c.Transform(seeked, plaintext[:BlockSize])

	if !bytes.Equal(full[BlockSize:], seeked) {
		t.Fatalf("seeking to block 1 did not match the second block of a from-zero transform")
	}
}

func TestBlockProducesNonZeroKeystream(t *testing.T) {
	var key [KeySize]byte
	zero := make([]byte, BlockSize)
	out := make([]byte, BlockSize)
	NewCipher(key, 0).Transform(out, zero)

	allZero := true
	for _, b := range out {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Fatalf("keystream block was all zero")
	}
}
