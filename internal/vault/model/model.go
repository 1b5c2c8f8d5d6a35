// Package model defines the plain data types the vault engine operates on:
// Entry, Snapshot, and GeneratorSpec. These are value-oriented structs with
// no behavior of their own beyond simple accessors; masking, serialization,
// and merge logic live in the packages that operate over them.
package model

import "golang.org/x/text/unicode/norm"

// NormalizeName applies Unicode NFC normalization to an entry name. Name is
// the one field the engine never masks, since it drives search and sort;
// without normalization, two visually identical names composed with
// different combining-character sequences would sort and dedup as
// distinct, the same confusable-path problem NFC guards against elsewhere
// in the corpus.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// GeneratorSpec describes how a password should be synthesized: which
// character classes to draw from, an optional extra alphabet, and the
// desired length.
type GeneratorSpec struct {
	ExtraAlphabet  string
	PasswordLength uint16
	UseLetters     bool
	UseNumbers     bool
	UseSpecial     bool
	UseExtra       bool
}

// Snapshot is one historical (username, password) pair recorded at a point
// in time. Username and Password are masked at rest whenever the owning
// Entry is not inside a scoped unmask.
type Snapshot struct {
	Timestamp int64
	Username  string
	Password  string
}

// Entry is a single credential record: a name, a comment, a generator
// preference, and an append-only history of snapshots. Comment and every
// snapshot's Username/Password are masked at rest; Name is never masked
// since it drives search and sort.
type Entry struct {
	UniqueID  uint64
	Timestamp int64
	Name      string
	Comment   string
	Generator GeneratorSpec
	Hidden    bool
	Snapshots []Snapshot
}

// MaskedFieldCount returns the number of masked string slots this entry
// owns: one for the comment plus two per snapshot (username, password).
// It does not itself perform masking, and no package in this module calls
// it.
func (e *Entry) MaskedFieldCount() int {
	return 1 + 2*len(e.Snapshots)
}
