package container

import (
	"errors"
	"strings"
	"testing"

	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vault/vaulterr"
)

func TestWriteReadEntryRoundTrip(t *testing.T) {
	entry := &model.Entry{
		UniqueID:  42,
		Timestamp: 100,
		Name:      "site",
		Comment:   "a note",
		Hidden:    true,
		Generator: model.GeneratorSpec{
			ExtraAlphabet:  "!!",
			PasswordLength: 12,
			UseLetters:     true,
			UseSpecial:     true,
		},
		Snapshots: []model.Snapshot{
			{Timestamp: 1, Username: "u1", Password: "p1"},
			{Timestamp: 2, Username: "u2", Password: "p2"},
		},
	}

	w := &recordWriter{}
	if err := writeEntry(w, entry); err != nil {
		t.Fatalf("writeEntry: %v", err)
	}

	r := &recordReader{buf: w.buf}
	got, err := readEntry(r)
	if err != nil {
		t.Fatalf("readEntry: %v", err)
	}

	if got.UniqueID != entry.UniqueID || got.Timestamp != entry.Timestamp ||
		got.Name != entry.Name || got.Comment != entry.Comment || got.Hidden != entry.Hidden {
		t.Fatalf("scalar fields mismatch: got %+v", got)
	}
	if got.Generator != entry.Generator {
		t.Fatalf("generator mismatch: got %+v, want %+v", got.Generator, entry.Generator)
	}
	if len(got.Snapshots) != len(entry.Snapshots) {
		t.Fatalf("got %d snapshots, want %d", len(got.Snapshots), len(entry.Snapshots))
	}
	for i := range entry.Snapshots {
		if got.Snapshots[i] != entry.Snapshots[i] {
			t.Fatalf("snapshot %d mismatch: got %+v, want %+v", i, got.Snapshots[i], entry.Snapshots[i])
		}
	}
}

func TestWriteEntryTruncatesOversizeStrings(t *testing.T) {
	entry := &model.Entry{
		UniqueID: 1,
		Name:     strings.Repeat("x", maxUint16+100),
	}

	w := &recordWriter{}
	if err := writeEntry(w, entry); err != nil {
		t.Fatalf("writeEntry: %v", err)
	}

	r := &recordReader{buf: w.buf}
	got, err := readEntry(r)
	if err != nil {
		t.Fatalf("readEntry: %v", err)
	}
	if len(got.Name) != maxUint16 {
		t.Fatalf("got name length %d, want %d", len(got.Name), maxUint16)
	}
}

func TestReadEntryTruncatedBufferIsCorruptRecord(t *testing.T) {
	entry := &model.Entry{UniqueID: 1, Timestamp: 1, Name: "x"}
	w := &recordWriter{}
	if err := writeEntry(w, entry); err != nil {
		t.Fatalf("writeEntry: %v", err)
	}

	truncated := w.buf[:len(w.buf)-3]
	r := &recordReader{buf: truncated}
	_, err := readEntry(r)
	if !errors.Is(err, vaulterr.ErrCorruptRecord) {
		t.Fatalf("got %v, want ErrCorruptRecord", err)
	}
}
