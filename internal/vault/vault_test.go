package vault

import (
	"errors"
	"testing"

	"github.com/cooky451/passchain-go/internal/logging"
	"github.com/cooky451/passchain-go/internal/vault/container"
	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vault/vaulterr"
)

func openTestDatabase(t *testing.T, password string) *Database {
	t.Helper()
	db, err := New(logging.NopLogger(), password)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return db
}

// TestConstructAddSerializeReload covers S1: construct a database, push an
// entry, serialize it, and reload it into a fresh database under the same
// password, checking the entry survives intact.
func TestConstructAddSerializeReload(t *testing.T) {
	db := openTestDatabase(t, "correct horse battery staple")
	defer db.Close()

	entry := &model.Entry{
		Name:    "github",
		Comment: "work account",
		Snapshots: []model.Snapshot{
			{Timestamp: 1700000000, Username: "alice", Password: "hunter2"},
		},
	}
	pushed := db.PushEntry(entry)
	if pushed.UniqueID == 0 {
		t.Fatalf("expected PushEntry to assign a nonzero id")
	}
	if db.CountEntries() != 1 {
		t.Fatalf("got %d entries, want 1", db.CountEntries())
	}

	data, err := db.Serialize(1700000001)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	reloaded := openTestDatabase(t, "correct horse battery staple")
	defer reloaded.Close()

	if err := reloaded.MergeFromEncryptedFile(data); err != nil {
		t.Fatalf("MergeFromEncryptedFile: %v", err)
	}
	if reloaded.CountEntries() != 1 {
		t.Fatalf("got %d entries after reload, want 1", reloaded.CountEntries())
	}

	got, ok := reloaded.FindByID(pushed.UniqueID)
	if !ok {
		t.Fatalf("reloaded database missing entry %d", pushed.UniqueID)
	}

	var plaintext model.Entry
	err = reloaded.WithEntryPlaintext(got, func() error {
		plaintext = *got
		return nil
	})
	if err != nil {
		t.Fatalf("WithEntryPlaintext: %v", err)
	}
	if plaintext.Comment != "work account" {
		t.Fatalf("got comment %q, want %q", plaintext.Comment, "work account")
	}
	if plaintext.Snapshots[0].Username != "alice" || plaintext.Snapshots[0].Password != "hunter2" {
		t.Fatalf("snapshot mismatch: %+v", plaintext.Snapshots[0])
	}
}

// TestReloadWrongPassword covers S2: a database serialized under one
// password fails MergeFromEncryptedFile under another.
func TestReloadWrongPassword(t *testing.T) {
	db := openTestDatabase(t, "correct horse battery staple")
	defer db.Close()
	db.PushEntry(&model.Entry{Name: "github"})

	data, err := db.Serialize(1700000001)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	wrong := openTestDatabase(t, "wrong horse battery staple")
	defer wrong.Close()

	err = wrong.MergeFromEncryptedFile(data)
	if !errors.Is(err, vaulterr.ErrWrongPassword) {
		t.Fatalf("got %v, want ErrWrongPassword", err)
	}
}

// TestReloadDamagedFile covers S3: flipping a byte in a serialized file
// causes reload to fail with ErrFileDamaged.
func TestReloadDamagedFile(t *testing.T) {
	db := openTestDatabase(t, "correct horse battery staple")
	defer db.Close()
	db.PushEntry(&model.Entry{Name: "github"})

	data, err := db.Serialize(1700000001)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	data[len(data)-10] ^= 0xFF

	reloaded := openTestDatabase(t, "correct horse battery staple")
	defer reloaded.Close()

	err = reloaded.MergeFromEncryptedFile(data)
	if !errors.Is(err, vaulterr.ErrFileDamaged) {
		t.Fatalf("got %v, want ErrFileDamaged", err)
	}
}

// TestStateTransitions walks a database through
// Empty -> Mutated -> Serialized -> Mutated -> Parsed (on a fresh load),
// asserting State() reports the expected value at each step.
func TestStateTransitions(t *testing.T) {
	db := openTestDatabase(t, "pw")
	defer db.Close()

	if db.State() != container.StateEmpty {
		t.Fatalf("got state %v, want empty", db.State())
	}

	db.PushEntry(&model.Entry{Name: "github"})
	if db.State() != container.StateMutated {
		t.Fatalf("got state %v, want mutated", db.State())
	}

	data, err := db.Serialize(1700000001)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if db.State() != container.StateSerialized {
		t.Fatalf("got state %v, want serialized", db.State())
	}

	db.PushEntry(&model.Entry{Name: "gitlab"})
	if db.State() != container.StateMutated {
		t.Fatalf("got state %v after second push, want mutated", db.State())
	}

	fresh := openTestDatabase(t, "pw")
	defer fresh.Close()
	if err := fresh.MergeFromEncryptedFile(data); err != nil {
		t.Fatalf("MergeFromEncryptedFile: %v", err)
	}
	if fresh.State() != container.StateParsed {
		t.Fatalf("got state %v after first load, want parsed", fresh.State())
	}
}

func TestMakeUniqueIDNeverZero(t *testing.T) {
	db := openTestDatabase(t, "pw")
	defer db.Close()

	for i := 0; i < 100; i++ {
		if db.MakeUniqueID() == 0 {
			t.Fatalf("MakeUniqueID returned 0")
		}
	}
}

func TestPushEntryAssignsIDAndMasks(t *testing.T) {
	db := openTestDatabase(t, "pw")
	defer db.Close()

	entry := &model.Entry{
		UniqueID: 42,
		Name:     "site",
		Comment:  "plaintext comment",
	}
	db.PushEntry(entry)

	if entry.UniqueID != 42 {
		t.Fatalf("expected PushEntry to preserve an existing nonzero id, got %d", entry.UniqueID)
	}
	if entry.Comment == "plaintext comment" {
		t.Fatalf("expected comment to be masked after PushEntry")
	}
}

func TestSortOrdersByQuery(t *testing.T) {
	db := openTestDatabase(t, "pw")
	defer db.Close()

	db.PushEntry(&model.Entry{Name: "zzzzzzzz"})
	db.PushEntry(&model.Entry{Name: "github"})

	db.Sort("github")
	first, ok := db.GetByIndex(0)
	if !ok || first.Name != "github" {
		t.Fatalf("expected github to sort first, got %+v", first)
	}
}

func TestGeneratePassword(t *testing.T) {
	db := openTestDatabase(t, "pw")
	defer db.Close()

	password, err := db.GeneratePassword(model.GeneratorSpec{UseLetters: true, UseNumbers: true, PasswordLength: 24})
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(password) != 24 {
		t.Fatalf("got length %d, want 24", len(password))
	}
}

func TestSerializeTextRoundTripsThroughMergeFromText(t *testing.T) {
	db := openTestDatabase(t, "pw")
	defer db.Close()

	db.PushEntry(&model.Entry{
		Name:    "github",
		Comment: "work",
		Snapshots: []model.Snapshot{
			{Timestamp: 1700000000, Username: "alice", Password: "hunter2"},
		},
	})

	text, err := db.SerializeText()
	if err != nil {
		t.Fatalf("SerializeText: %v", err)
	}

	fresh := openTestDatabase(t, "pw")
	defer fresh.Close()

	if err := fresh.MergeFromText(text, 1700000001); err != nil {
		t.Fatalf("MergeFromText: %v", err)
	}
	if fresh.CountEntries() != 1 {
		t.Fatalf("got %d entries, want 1", fresh.CountEntries())
	}

	got, _ := fresh.GetByIndex(0)
	var plaintext model.Entry
	err = fresh.WithEntryPlaintext(got, func() error {
		plaintext = *got
		return nil
	})
	if err != nil {
		t.Fatalf("WithEntryPlaintext: %v", err)
	}
	if plaintext.Name != "github" || plaintext.Comment != "work" {
		t.Fatalf("got name=%q comment=%q", plaintext.Name, plaintext.Comment)
	}
	if len(plaintext.Snapshots) != 1 || plaintext.Snapshots[0].Username != "alice" {
		t.Fatalf("snapshot mismatch: %+v", plaintext.Snapshots)
	}
}

func TestMergeFromTextUpdatesExistingEntryByID(t *testing.T) {
	db := openTestDatabase(t, "pw")
	defer db.Close()

	pushed := db.PushEntry(&model.Entry{Name: "old-name", Timestamp: 10})

	importText, err := proptreeImportForExistingID(t, db, pushed.UniqueID)
	if err != nil {
		t.Fatalf("building import text: %v", err)
	}

	if err := db.MergeFromText(importText, 1700000002); err != nil {
		t.Fatalf("MergeFromText: %v", err)
	}
	if db.CountEntries() != 1 {
		t.Fatalf("got %d entries, want 1 (merge, not append)", db.CountEntries())
	}

	got, ok := db.FindByID(pushed.UniqueID)
	if !ok || got.Name != "updated-name" {
		t.Fatalf("expected merged entry with updated name, got %+v", got)
	}
}

// proptreeImportForExistingID renders a minimal text import that targets an
// existing entry's id with a later timestamp, so MergeFromText merges
// in place instead of appending.
func proptreeImportForExistingID(t *testing.T, db *Database, id uint64) ([]byte, error) {
	t.Helper()
	db2 := openTestDatabase(t, "pw")
	defer db2.Close()
	db2.PushEntry(&model.Entry{UniqueID: id, Name: "updated-name", Timestamp: 20})
	return db2.SerializeText()
}
