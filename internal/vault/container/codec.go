package container

import (
	"encoding/binary"
	"fmt"

	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vault/secretbuf"
	"github.com/cooky451/passchain-go/internal/vault/vaulterr"
	"github.com/cooky451/passchain-go/internal/vaultcrypto"
)

// cipherNonce is the fixed ChaCha20 stream nonce used for file encryption.
// The file's own 32-byte random field already makes enc_key unique per
// save (it's folded into the KDF), so the cipher itself never needs a
// second, independent nonce.
const cipherNonce uint64 = 0

// Load parses and decrypts a container file's bytes into plaintext entry
// records, then masks each one under ring before returning it. data is
// scrubbed before Load returns, win or lose; callers must not reuse it.
//
// maskedPassword is the database's currently-masked master password; it is
// briefly unmasked to derive the encryption and MAC keys and re-masked
// immediately after.
func Load(data []byte, maskedPassword *string, ring *secretbuf.KeyRing) ([]*model.Entry, int64, error) {
	defer vaultcrypto.Scrub(data)

	if len(data) < HeaderSize {
		return nil, 0, fmt.Errorf("%w: %d bytes, need at least %d", vaulterr.ErrFileTooSmall, len(data), HeaderSize)
	}

	gotHash := vaultcrypto.Sum256(data[szIntegrityHash:])
	if !bytesEqual(gotHash[:szIntegrityHash], data[offIntegrityHash:offIntegrityHash+szIntegrityHash]) {
		return nil, 0, vaulterr.ErrFileDamaged
	}

	ffv := binary.LittleEndian.Uint16(data[offFFV : offFFV+szFFV])
	major := byte(ffv >> 8)
	if major != CurrentMajor {
		return nil, 0, fmt.Errorf("%w: major %d, want %d", vaulterr.ErrBadVersion, major, CurrentMajor)
	}

	nonce := data[offNonce : offNonce+szNonce]

	var encKey, macKey [vaultcrypto.HashSize]byte
	err := ring.WithMasterPassword(maskedPassword, func(plaintext string) error {
		encKey = vaultcrypto.DeriveKey([]byte(plaintext), nonce, vaultcrypto.DomainFileEncKey)
		macKey = vaultcrypto.DeriveKey([]byte(plaintext), nonce, vaultcrypto.DomainFileMACKey)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	defer vaultcrypto.Scrub(encKey[:])
	defer vaultcrypto.Scrub(macKey[:])

	mac := vaultcrypto.NewKeyedHasher(macKey[:])
	mac.Update(data[offFFV : offFFV+szFFV+szReserved1])
	mac.Update(data[offTimestamp:])
	gotMAC := mac.Finish()
	if !bytesEqual(gotMAC[:], data[offMAC:offMAC+szMAC]) {
		return nil, 0, vaulterr.ErrWrongPassword
	}

	cipher := vaultcrypto.NewCipher(encKey, cipherNonce)
	cipher.Transform(data[offTimestamp:], data[offTimestamp:])

	timestamp := int64(binary.LittleEndian.Uint64(data[offTimestamp : offTimestamp+szTimestamp]))
	entryCount := binary.LittleEndian.Uint32(data[offEntryCount : offEntryCount+szEntryCount])

	r := &recordReader{buf: data, pos: HeaderSize}
	initialCap := entryCount
	if initialCap > 4096 {
		initialCap = 4096
	}
	entries := make([]*model.Entry, 0, initialCap)
	for i := uint32(0); i < entryCount; i++ {
		entry, err := readEntry(r)
		if err != nil {
			return nil, 0, err
		}
		ring.ToggleEntry(entry)
		entries = append(entries, entry)
	}

	return entries, timestamp, nil
}

// Save serializes entries into a fresh container file encrypted under a
// freshly drawn random nonce, scoped-unmasking each entry just long enough
// to append its plaintext record.
func Save(entries []*model.Entry, maskedPassword *string, ring *secretbuf.KeyRing, rng *vaultcrypto.CSPRNG, now int64) ([]byte, error) {
	w := &recordWriter{buf: make([]byte, HeaderSize)}

	for _, entry := range entries {
		var writeErr error
		err := ring.WithPlaintext(entry, func() error {
			writeErr = writeEntry(w, entry)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if writeErr != nil {
			return nil, writeErr
		}
	}

	buf := w.buf

	ffv := uint16(CurrentMajor)<<8 | uint16(CurrentMinor)
	binary.LittleEndian.PutUint16(buf[offFFV:offFFV+szFFV], ffv)
	for i := 0; i < szReserved1; i++ {
		buf[offReserved1+i] = 0
	}

	nonce := rng.Extract(szNonce)
	copy(buf[offNonce:offNonce+szNonce], nonce)

	binary.LittleEndian.PutUint64(buf[offTimestamp:offTimestamp+szTimestamp], uint64(now))
	if len(entries) > int(^uint32(0)) {
		return nil, fmt.Errorf("too many entries for a uint32 count: %d", len(entries))
	}
	binary.LittleEndian.PutUint32(buf[offEntryCount:offEntryCount+szEntryCount], uint32(len(entries)))
	for i := 0; i < szReserved2; i++ {
		buf[offReserved2+i] = 0
	}

	var encKey, macKey [vaultcrypto.HashSize]byte
	err := ring.WithMasterPassword(maskedPassword, func(plaintext string) error {
		encKey = vaultcrypto.DeriveKey([]byte(plaintext), nonce, vaultcrypto.DomainFileEncKey)
		macKey = vaultcrypto.DeriveKey([]byte(plaintext), nonce, vaultcrypto.DomainFileMACKey)
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer vaultcrypto.Scrub(encKey[:])
	defer vaultcrypto.Scrub(macKey[:])

	cipher := vaultcrypto.NewCipher(encKey, cipherNonce)
	cipher.Transform(buf[offTimestamp:], buf[offTimestamp:])

	mac := vaultcrypto.NewKeyedHasher(macKey[:])
	mac.Update(buf[offFFV : offFFV+szFFV+szReserved1])
	mac.Update(buf[offTimestamp:])
	macDigest := mac.Finish()
	copy(buf[offMAC:offMAC+szMAC], macDigest[:])

	integrityHash := vaultcrypto.Sum256(buf[szIntegrityHash:])
	copy(buf[offIntegrityHash:offIntegrityHash+szIntegrityHash], integrityHash[:szIntegrityHash])

	return buf, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
