package proptree

import (
	"strconv"

	"github.com/cooky451/passchain-go/internal/vault/model"
)

// Scalar and sub-node key names used by the entry <-> node mapping. Text
// export/import is a secret-releasing operation: every conversion in this
// file works on plaintext fields, so callers must unmask before exporting
// and mask candidate entries on import before they join a live database.
const (
	keyUniqueID      = "unique_id"
	keyTimestamp     = "timestamp"
	keyName          = "name"
	keyComment       = "comment"
	keyHide          = "hide"
	keyGenLetters    = "gen.letters"
	keyGenNumbers    = "gen.numbers"
	keyGenSpecial    = "gen.special"
	keyGenExtra      = "gen.extra"
	keyGenLength     = "gen.length"
	keyGenExtraAlpha = "gen.extra_alphabet"

	keySnapUsername  = "username"
	keySnapPassword  = "password"
	keySnapTimestamp = "timestamp"

	keyNumberOfEntries    = "number_of_entries"
	keyNumberOfSnapshots  = "number_of_snapshots"
	keyLastSerializeField = "last_serialize"

	defaultGeneratorLength = 16
)

// EntryToNode renders one plaintext entry as a sub-node in the shape
// described by the text format: scalar keys plus one sub-node per
// snapshot, named by decimal index.
func EntryToNode(e *model.Entry) *Node {
	n := &Node{}
	n.Set(keyUniqueID, strconv.FormatUint(e.UniqueID, 10))
	n.Set(keyTimestamp, strconv.FormatInt(e.Timestamp, 10))
	n.Set(keyName, e.Name)
	n.Set(keyComment, e.Comment)
	n.Set(keyHide, strconv.FormatBool(e.Hidden))
	n.Set(keyGenLetters, strconv.FormatBool(e.Generator.UseLetters))
	n.Set(keyGenNumbers, strconv.FormatBool(e.Generator.UseNumbers))
	n.Set(keyGenSpecial, strconv.FormatBool(e.Generator.UseSpecial))
	n.Set(keyGenExtra, strconv.FormatBool(e.Generator.UseExtra))
	n.Set(keyGenLength, strconv.FormatUint(uint64(e.Generator.PasswordLength), 10))
	n.Set(keyGenExtraAlpha, e.Generator.ExtraAlphabet)

	for i, snap := range e.Snapshots {
		child := n.AppendNode(strconv.Itoa(i))
		child.Set(keySnapUsername, snap.Username)
		child.Set(keySnapPassword, snap.Password)
		child.Set(keySnapTimestamp, strconv.FormatInt(snap.Timestamp, 10))
	}

	return n
}

// NodeToEntry builds a candidate entry from a parsed sub-node. Missing
// scalar keys take the documented defaults: empty strings, false flags,
// generator length 16. UniqueID and Timestamp are returned as literally
// parsed (0 if absent); the caller assigns a fresh id/timestamp for a zero
// value, since doing so requires the database's RNG and clock.
func NodeToEntry(n *Node) *model.Entry {
	e := &model.Entry{
		Generator: model.GeneratorSpec{PasswordLength: defaultGeneratorLength},
	}

	if v, ok := n.Get(keyUniqueID); ok {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			e.UniqueID = id
		}
	}
	if v, ok := n.Get(keyTimestamp); ok {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			e.Timestamp = ts
		}
	}
	if v, ok := n.Get(keyName); ok {
		e.Name = model.NormalizeName(v)
	}
	if v, ok := n.Get(keyComment); ok {
		e.Comment = v
	}
	if v, ok := n.Get(keyHide); ok {
		e.Hidden = v == "true"
	}
	if v, ok := n.Get(keyGenLetters); ok {
		e.Generator.UseLetters = v == "true"
	}
	if v, ok := n.Get(keyGenNumbers); ok {
		e.Generator.UseNumbers = v == "true"
	}
	if v, ok := n.Get(keyGenSpecial); ok {
		e.Generator.UseSpecial = v == "true"
	}
	if v, ok := n.Get(keyGenExtra); ok {
		e.Generator.UseExtra = v == "true"
	}
	if v, ok := n.Get(keyGenLength); ok {
		if length, err := strconv.ParseUint(v, 10, 16); err == nil {
			e.Generator.PasswordLength = uint16(length)
		}
	}
	if v, ok := n.Get(keyGenExtraAlpha); ok {
		e.Generator.ExtraAlphabet = v
	}

	for _, snapEntry := range n.Nodes() {
		child := snapEntry.Child
		var snap model.Snapshot
		if v, ok := child.Get(keySnapUsername); ok {
			snap.Username = v
		}
		if v, ok := child.Get(keySnapPassword); ok {
			snap.Password = v
		}
		if v, ok := child.Get(keySnapTimestamp); ok {
			if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
				snap.Timestamp = ts
			}
		}
		e.Snapshots = append(e.Snapshots, snap)
	}

	return e
}

// WriteDatabase renders a full database export: one root child per entry,
// named by its decimal unique_id, plus informational root scalars that
// import ignores.
func WriteDatabase(entries []*model.Entry, lastSerialize int64) []byte {
	root := &Node{}
	root.Set(keyNumberOfEntries, strconv.Itoa(len(entries)))

	snapshotTotal := 0
	for _, e := range entries {
		snapshotTotal += len(e.Snapshots)
	}
	root.Set(keyNumberOfSnapshots, strconv.Itoa(snapshotTotal))
	root.Set(keyLastSerializeField, strconv.FormatInt(lastSerialize, 10))

	for _, e := range entries {
		name := strconv.FormatUint(e.UniqueID, 10)
		root.Entries = append(root.Entries, Entry{Key: name, Child: EntryToNode(e)})
	}

	return Write(root)
}

// ParseDatabase parses a full database export (or a hand-written import
// file) into candidate entries. The three informational root scalars are
// ignored; every sub-node, regardless of its key, is treated as one
// candidate entry.
func ParseDatabase(data []byte) ([]*model.Entry, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	var entries []*model.Entry
	for _, child := range root.Nodes() {
		entries = append(entries, NodeToEntry(child.Child))
	}
	return entries, nil
}
