// Package secretbuf implements the vault's in-memory secret-protection
// discipline: an ephemeral per-process key, the ChaCha20 masking transform
// applied to every secret field of an Entry, and a scoped "lease" that
// guarantees re-masking on every exit path, including panics.
package secretbuf

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vaultcrypto"
)

// Block-index multipliers from the masking scheme: the comment always
// lives at block 0; the i-th snapshot's username and password live at
// distinct, non-overlapping block ranges derived from its index.
const (
	commentBlock          = 0
	snapshotUsernameScale = 0xFFFF
	snapshotPasswordScale = 0xFFFFFF
)

// KeyRing owns the ephemeral key used to mask every secret string held by
// a database, and tracks which entries currently have an open unmask
// lease so a caller can't accidentally nest two leases over the same
// entry.
type KeyRing struct {
	key [vaultcrypto.KeySize]byte

	mu     sync.Mutex
	active map[*model.Entry]struct{}
}

// NewKeyRing wraps an already-derived 32-byte ephemeral key. Callers derive
// the key with vaultcrypto.DeriveKey(password, tempKeyNonce, DomainEphemeralKey)
// before constructing a KeyRing.
func NewKeyRing(key [vaultcrypto.KeySize]byte) *KeyRing {
	return &KeyRing{
		key:    key,
		active: make(map[*model.Entry]struct{}),
	}
}

// Key returns the ephemeral key bytes. Callers must not retain or persist
// the returned array beyond the immediate operation.
func (k *KeyRing) Key() [vaultcrypto.KeySize]byte {
	return k.key
}

// Scrub zeroes the ephemeral key in place. The KeyRing is unusable
// afterwards.
func (k *KeyRing) Scrub() {
	vaultcrypto.Scrub(k.key[:])
}

// toggleString XORs s against a ChaCha20 keystream derived from key, nonce,
// and block, returning the transformed string. Applying this twice with
// the same arguments returns the original bytes since XOR is its own
// inverse.
func toggleString(key [vaultcrypto.KeySize]byte, nonce, block uint64, s string) string {
	if s == "" {
		return s
	}
	c := vaultcrypto.NewCipher(key, nonce)
	c.SetBlockIndex(block)
	src := []byte(s)
	dst := make([]byte, len(src))
	c.Transform(dst, src)
	// The result keeps dst as its own backing array, so ScrubString can
	// zero it later; string(dst) would return shared read-only storage for
	// a 1-byte result.
	return unsafe.String(&dst[0], len(dst))
}

// ToggleEntry masks or unmasks (the operation is identical either way) the
// comment and every snapshot's username/password of e in place, using
// e.UniqueID as the nonce. The caller must not reorder e.Snapshots between
// a mask and the matching unmask: block indices are derived from snapshot
// position, so a mask applied at one ordering only inverts correctly at
// that same ordering.
func (k *KeyRing) ToggleEntry(e *model.Entry) {
	k.toggleEntryLocked(e)
}

func (k *KeyRing) toggleEntryLocked(e *model.Entry) {
	e.Comment = toggleString(k.key, e.UniqueID, commentBlock, e.Comment)
	for i := range e.Snapshots {
		snap := &e.Snapshots[i]
		block := uint64(i+1) * snapshotUsernameScale
		snap.Username = toggleString(k.key, e.UniqueID, block, snap.Username)
		block = uint64(i+1) * snapshotPasswordScale
		snap.Password = toggleString(k.key, e.UniqueID, block, snap.Password)
	}
}

// ErrLeaseActive is returned when WithPlaintext is re-entered for an entry
// that already has an open unmask lease.
var ErrLeaseActive = fmt.Errorf("secretbuf: entry already has an active unmask lease")

// WithPlaintext unmasks e's secret fields, runs fn, and re-masks them
// before returning, including when fn panics. Unmask regions do not nest
// for the same entry: calling WithPlaintext again for e while its lease is
// still open returns ErrLeaseActive without touching e.
func (k *KeyRing) WithPlaintext(e *model.Entry, fn func() error) error {
	k.mu.Lock()
	if _, open := k.active[e]; open {
		k.mu.Unlock()
		return fmt.Errorf("%w: id=%d", ErrLeaseActive, e.UniqueID)
	}
	k.active[e] = struct{}{}
	k.mu.Unlock()

	k.toggleEntryLocked(e)
	defer func() {
		k.toggleEntryLocked(e)
		k.mu.Lock()
		delete(k.active, e)
		k.mu.Unlock()
	}()

	return fn()
}

// ToggleMasterPassword masks or unmasks the master password string in
// place, using nonce 0 and block 0 as the spec's fixed coordinates for
// this single, database-wide secret.
func (k *KeyRing) ToggleMasterPassword(password *string) {
	*password = toggleString(k.key, 0, 0, *password)
}

// WithMasterPassword unmasks the master password, passes the plaintext to
// fn, and re-masks it before returning regardless of how fn exits.
func (k *KeyRing) WithMasterPassword(masked *string, fn func(plaintext string) error) error {
	k.ToggleMasterPassword(masked)
	defer k.ToggleMasterPassword(masked)
	return fn(*masked)
}
