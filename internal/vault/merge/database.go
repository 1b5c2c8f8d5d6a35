package merge

import "github.com/cooky451/passchain-go/internal/vault/model"

// IntoLive folds candidates into live by unique_id: a candidate whose id
// matches an existing live entry is merged into it via Entry; otherwise
// the candidate is appended as a new live entry. A candidate with a zero
// UniqueID is assigned one via freshID; a candidate with a zero Timestamp
// is stamped with now. Returns the (possibly grown) live slice.
//
// Both live and candidates must be plaintext when this runs: masking is
// the caller's responsibility, typically one scoped unmask per matched
// live entry around the call to Entry, and masking a freshly appended
// candidate once immediately after.
func IntoLive(live []*model.Entry, candidates []*model.Entry, freshID func() uint64, now int64) []*model.Entry {
	byID := make(map[uint64]*model.Entry, len(live))
	for _, e := range live {
		byID[e.UniqueID] = e
	}

	for _, cand := range candidates {
		if cand.UniqueID == 0 {
			cand.UniqueID = freshID()
		}
		if cand.Timestamp == 0 {
			cand.Timestamp = now
		}

		if existing, ok := byID[cand.UniqueID]; ok {
			Entry(existing, cand)
		} else {
			live = append(live, cand)
			byID[cand.UniqueID] = cand
		}
	}

	return live
}
