// Package merge implements the vault's deterministic merge algorithm: two
// entries sharing a unique_id are combined into one, and a parsed text
// import is folded into a live set of entries by the same rule.
package merge

import (
	"sort"
	"strings"

	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vaultcrypto"
)

// Entry merges source into target in place; both must already share a
// UniqueID and both must be plaintext (callers unmask before calling and
// re-mask afterward). Whichever side has the later Timestamp contributes
// its Name/Comment/Hidden/Generator; ties keep target's fields. Snapshots
// are unioned, sorted ascending by timestamp, and deduplicated by
// (timestamp, username, password); the losing side's comment and any
// deduped snapshot fields are scrubbed. Source is left with no snapshots
// and an empty name/comment afterward.
func Entry(target, source *model.Entry) {
	if source.Timestamp > target.Timestamp {
		loserComment := target.Comment
		target.Name = copyString(source.Name)
		target.Comment = copyString(source.Comment)
		target.Hidden = source.Hidden
		target.Generator = source.Generator
		target.Timestamp = source.Timestamp
		vaultcrypto.ScrubString(&loserComment)
	} else {
		loserComment := source.Comment
		vaultcrypto.ScrubString(&loserComment)
	}

	combined := make([]model.Snapshot, 0, len(target.Snapshots)+len(source.Snapshots))
	combined = append(combined, target.Snapshots...)
	combined = append(combined, source.Snapshots...)
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Timestamp < combined[j].Timestamp
	})

	type key struct {
		ts       int64
		username string
		password string
	}
	seen := make(map[key]bool, len(combined))
	deduped := make([]model.Snapshot, 0, len(combined))
	for i := range combined {
		k := key{combined[i].Timestamp, combined[i].Username, combined[i].Password}
		if seen[k] {
			vaultcrypto.ScrubString(&combined[i].Username)
			vaultcrypto.ScrubString(&combined[i].Password)
			continue
		}
		seen[k] = true
		deduped = append(deduped, combined[i])
	}

	target.Snapshots = deduped
	source.Snapshots = nil
	source.Name = ""
	source.Comment = ""
}

func copyString(s string) string {
	return strings.Clone(s)
}
