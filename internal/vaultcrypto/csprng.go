package vaultcrypto

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// CSPRNG is a Keccak-sponge random generator: entropy is absorbed with
// Reseed and pseudo-random bytes are drawn with Extract. It mirrors the
// original's keccak-based random engine rather than a counter-mode DRBG,
// so the same sha3 package used for hashing also backs randomness.
//
// The underlying sha3.ShakeHash panics if Write is called after any Read
// has happened on the same instance ("write to sponge after read"), so the
// real sponge here is kept permanently in absorb mode: Extract never reads
// from it directly. It instead clones the sponge (Clone branches off an
// independent copy already in squeeze mode) and reads from the clone,
// after first writing a fresh counter value into the real sponge so two
// Extract calls never clone from identical state. Reseed therefore stays
// safe to call at any point in the CSPRNG's lifetime, including after any
// number of prior Extract calls.
type CSPRNG struct {
	sponge  sha3.ShakeHash
	counter uint64
}

// NewCSPRNG constructs a CSPRNG reseeded from the current wall-clock time in
// seconds, the wall-clock time in nanoseconds, and two independent reads of
// OS entropy. No monotonic clock reading is mixed in.
func NewCSPRNG() (*CSPRNG, error) {
	r := &CSPRNG{sponge: sha3.NewShake256()}

	var wallBuf [8]byte
	binary.LittleEndian.PutUint64(wallBuf[:], uint64(time.Now().Unix()))
	r.Reseed(wallBuf[:])

	var monoBuf [8]byte
	binary.LittleEndian.PutUint64(monoBuf[:], uint64(time.Now().UnixNano()))
	r.Reseed(monoBuf[:])

	var entropy [32]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return nil, fmt.Errorf("csprng: reading os entropy: %w", err)
	}
	r.Reseed(entropy[:])

	if _, err := rand.Read(entropy[:]); err != nil {
		return nil, fmt.Errorf("csprng: reading os entropy: %w", err)
	}
	r.Reseed(entropy[:])

	return r, nil
}

// Reseed absorbs additional entropy into the sponge state. It never
// discards previously absorbed entropy; it only strengthens the state.
// Safe to call with arbitrary, even attacker-influenced, opaque bytes,
// for example UI-event timing the host chooses to feed in.
func (r *CSPRNG) Reseed(data []byte) {
	r.sponge.Write(data)
}

// Extract draws n pseudo-random bytes. It never reads from the real
// sponge, which stays in absorb mode for the lifetime of the CSPRNG:
// it writes a fresh counter value into the sponge, clones it, and reads
// the output from the clone. Each call therefore clones from distinct
// state, so the output is never the same for two calls, while the real
// sponge remains writable by a later Reseed.
func (r *CSPRNG) Extract(n int) []byte {
	var counterBuf [8]byte
	binary.LittleEndian.PutUint64(counterBuf[:], r.counter)
	r.counter++
	r.sponge.Write(counterBuf[:])

	clone := r.sponge.Clone()
	out := make([]byte, n)
	clone.Read(out)
	return out
}

// Scrub best-effort zeroes the sponge's internal rate/capacity state by
// replacing it with a fresh, unseeded sponge; the previous sponge value is
// dropped and becomes eligible for garbage collection.
func (r *CSPRNG) Scrub() {
	r.sponge = sha3.NewShake256()
	r.counter = 0
}

// Touch reads a few bytes from a clone of the sponge to keep the
// underlying state pages resident, the same clone-then-read shape Extract
// uses, without writing a counter value or returning anything to a caller.
func (r *CSPRNG) Touch() {
	probe := r.sponge.Clone()
	var buf [32]byte
	probe.Read(buf[:])
	Scrub(buf[:])
}
