// Package vault assembles the vault engine's primitive packages into a
// single Database: an in-memory, always-masked set of entries fronted by a
// small query surface, plus load/save against the binary container format
// and merge/export against the text format.
package vault

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/cooky451/passchain-go/internal/logging"
	"github.com/cooky451/passchain-go/internal/vault/container"
	"github.com/cooky451/passchain-go/internal/vault/generator"
	"github.com/cooky451/passchain-go/internal/vault/merge"
	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vault/proptree"
	"github.com/cooky451/passchain-go/internal/vault/ranker"
	"github.com/cooky451/passchain-go/internal/vault/secretbuf"
	"github.com/cooky451/passchain-go/internal/vaultcrypto"
)

// Database is a live, in-memory vault: a set of always-masked entries, the
// ephemeral key ring that masks them, the CSPRNG backing both masking and
// password generation, and the background task that keeps both resident.
type Database struct {
	logger *slog.Logger

	entries        []*model.Entry
	maskedPassword string
	lastSerialize  int64
	state          container.State

	ring   *secretbuf.KeyRing
	rng    *vaultcrypto.CSPRNG
	pageIn *secretbuf.PageInTask
}

// State reports where this database sits in the Empty, Parsed, Mutated,
// Serialized life cycle.
func (db *Database) State() container.State {
	return db.state
}

// New derives a fresh ephemeral key from password, masks password itself
// under it, and starts the background page-in task. The returned Database
// has no entries yet; load one from an encrypted file or a text export, or
// push entries directly.
func New(logger *slog.Logger, password string) (*Database, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	rng, err := vaultcrypto.NewCSPRNG()
	if err != nil {
		return nil, fmt.Errorf("vault: constructing csprng: %w", err)
	}

	tempNonce := rng.Extract(vaultcrypto.HashSize)
	ephemeralKey := vaultcrypto.DeriveKey([]byte(password), tempNonce, vaultcrypto.DomainEphemeralKey)
	ring := secretbuf.NewKeyRing(ephemeralKey)
	vaultcrypto.Scrub(ephemeralKey[:])

	masked := password
	ring.ToggleMasterPassword(&masked)

	db := &Database{
		logger:         logger,
		maskedPassword: masked,
		ring:           ring,
		rng:            rng,
	}
	db.pageIn = secretbuf.StartPageIn(logger, ring, rng)

	logger.Debug("vault opened", logging.KeyComponent, "vault")
	return db, nil
}

// Close stops the page-in task and scrubs every secret the Database holds,
// including every entry's masked fields. The Database must not be used
// afterward.
func (db *Database) Close() {
	db.pageIn.Stop()

	for _, e := range db.entries {
		vaultcrypto.ScrubString(&e.Comment)
		for i := range e.Snapshots {
			vaultcrypto.ScrubString(&e.Snapshots[i].Username)
			vaultcrypto.ScrubString(&e.Snapshots[i].Password)
		}
	}
	vaultcrypto.ScrubString(&db.maskedPassword)
	db.ring.Scrub()
	db.rng.Scrub()
}

// CountEntries returns the number of entries currently held.
func (db *Database) CountEntries() int {
	return len(db.entries)
}

// GetByIndex returns the entry at position i in the database's current
// order, or false if i is out of range.
func (db *Database) GetByIndex(i int) (*model.Entry, bool) {
	if i < 0 || i >= len(db.entries) {
		return nil, false
	}
	return db.entries[i], true
}

// FindByID returns the entry with the given UniqueID, or false if none
// exists.
func (db *Database) FindByID(id uint64) (*model.Entry, bool) {
	for _, e := range db.entries {
		if e.UniqueID == id {
			return e, true
		}
	}
	return nil, false
}

// PushEntry assigns entry a fresh UniqueID if it doesn't already have one,
// masks its secret fields, and appends it. entry must be plaintext on
// entry to this call.
func (db *Database) PushEntry(entry *model.Entry) *model.Entry {
	if entry.UniqueID == 0 {
		entry.UniqueID = db.MakeUniqueID()
	}
	entry.Name = model.NormalizeName(entry.Name)
	db.ring.ToggleEntry(entry)
	db.entries = append(db.entries, entry)
	db.state = container.StateMutated
	return entry
}

// MakeUniqueID draws a fresh, nonzero id from the database's CSPRNG. It is
// not checked against existing entries for collisions; callers that need
// that guarantee retry on a FindByID hit.
func (db *Database) MakeUniqueID() uint64 {
	for {
		id := binary.LittleEndian.Uint64(db.rng.Extract(8))
		if id != 0 {
			return id
		}
	}
}

// Sort reorders the database's entries in place by ranker.Rank against
// query.
func (db *Database) Sort(query string) {
	db.entries = ranker.Rank(db.entries, query)
}

// GeneratePassword draws a password from spec using the database's CSPRNG.
func (db *Database) GeneratePassword(spec model.GeneratorSpec) (string, error) {
	return generator.Generate(db.rng, spec)
}

// ReseedRNG absorbs additional entropy, such as UI event timing, into the
// database's CSPRNG.
func (db *Database) ReseedRNG(data []byte) {
	db.rng.Reseed(data)
}

// WithEntryPlaintext unmasks entry's secret fields, runs fn, and re-masks
// them before returning, even if fn panics.
func (db *Database) WithEntryPlaintext(entry *model.Entry, fn func() error) error {
	return db.ring.WithPlaintext(entry, fn)
}

// MergeFromEncryptedFile decrypts data under the database's master
// password and appends every record it contains as a new, masked entry.
// No identifier collision check is performed: loading is an append
// operation, not a merge by id.
func (db *Database) MergeFromEncryptedFile(data []byte) error {
	loaded, _, err := container.Load(data, &db.maskedPassword, db.ring)
	if err != nil {
		return fmt.Errorf("vault: loading container: %w", err)
	}
	db.entries = append(db.entries, loaded...)
	if db.state == container.StateEmpty {
		db.state = container.StateParsed
	} else {
		db.state = container.StateMutated
	}
	db.logger.Info("merged encrypted file",
		logging.KeyComponent, "vault",
		logging.KeyEntryCount, len(loaded))
	return nil
}

// Serialize encrypts the database's current entries into a fresh container
// file under a freshly drawn nonce, stamped with now.
func (db *Database) Serialize(now int64) ([]byte, error) {
	data, err := container.Save(db.entries, &db.maskedPassword, db.ring, db.rng, now)
	if err != nil {
		return nil, fmt.Errorf("vault: serializing container: %w", err)
	}
	db.lastSerialize = now
	db.state = container.StateSerialized
	return data, nil
}

// MergeFromText parses a plaintext export and folds each candidate entry
// into the live set by unique_id via merge.IntoLive: a candidate matching
// an existing entry's id is merged into it in place (the existing entry is
// unmasked for the merge and re-masked immediately after); any other
// candidate is masked and appended as a new entry. A candidate with a zero
// id or timestamp is stamped with a fresh id and now respectively.
func (db *Database) MergeFromText(data []byte, now int64) error {
	candidates, err := proptree.ParseDatabase(data)
	if err != nil {
		return fmt.Errorf("vault: parsing text import: %w", err)
	}

	matched := make([]*model.Entry, 0, len(candidates))
	seen := make(map[*model.Entry]struct{}, len(candidates))
	for _, cand := range candidates {
		if cand.UniqueID == 0 {
			continue
		}
		existing, ok := db.FindByID(cand.UniqueID)
		if !ok {
			continue
		}
		if _, dup := seen[existing]; dup {
			continue
		}
		seen[existing] = struct{}{}
		matched = append(matched, existing)
	}

	for _, e := range matched {
		db.ring.ToggleEntry(e)
	}
	defer func() {
		for _, e := range matched {
			db.ring.ToggleEntry(e)
		}
	}()

	before := len(db.entries)
	db.entries = merge.IntoLive(db.entries, candidates, db.MakeUniqueID, now)
	for _, appended := range db.entries[before:] {
		db.ring.ToggleEntry(appended)
	}

	db.state = container.StateMutated
	db.logger.Info("merged text import",
		logging.KeyComponent, "vault",
		logging.KeyEntryCount, len(candidates))
	return nil
}

// SerializeText renders a plaintext export of every entry currently held.
// Producing it requires briefly unmasking each entry in turn; every entry
// is re-masked before this call returns.
func (db *Database) SerializeText() ([]byte, error) {
	plain := make([]*model.Entry, len(db.entries))
	for i, e := range db.entries {
		var snapshot model.Entry
		err := db.ring.WithPlaintext(e, func() error {
			snapshot = *e
			snapshot.Snapshots = append([]model.Snapshot(nil), e.Snapshots...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("vault: exporting entry %d: %w", e.UniqueID, err)
		}
		plain[i] = &snapshot
	}

	return proptree.WriteDatabase(plain, db.lastSerialize), nil
}
