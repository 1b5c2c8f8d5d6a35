// Package vaulterr defines the sentinel error taxonomy the vault engine
// exposes to its callers. Container load/save and password-generator
// failures are one of these, wrapped with additional context via
// fmt.Errorf's %w. Text-import parse errors from package proptree,
// secretbuf.ErrLeaseActive and OS entropy failures are returned as their
// own errors, outside this set.
package vaulterr

import "errors"

var (
	// ErrFileTooSmall is returned when a container file is shorter than
	// the fixed 128-byte header.
	ErrFileTooSmall = errors.New("file-too-small")

	// ErrFileDamaged is returned when the integrity hash over bytes
	// [16:end) does not match the stored value.
	ErrFileDamaged = errors.New("file-damaged")

	// ErrBadVersion is returned when a file's format major version does
	// not match the reader's supported major version.
	ErrBadVersion = errors.New("bad-version")

	// ErrWrongPassword is returned when the MAC does not verify against
	// the derived MAC key; the integrity hash matched, so the file
	// itself is intact but the password used to derive keys was wrong.
	ErrWrongPassword = errors.New("wrong-password")

	// ErrCorruptRecord is returned when entry-record parsing runs past
	// the end of the decrypted buffer.
	ErrCorruptRecord = errors.New("corrupt-record")

	// ErrTooManySnapshots is returned at serialize time when an entry
	// holds more than 65535 snapshots.
	ErrTooManySnapshots = errors.New("too-many-snapshots")

	// ErrBadAlphabet is returned when a generator's constructed alphabet
	// is empty or contains a non-printable or whitespace byte.
	ErrBadAlphabet = errors.New("bad-alphabet")
)
