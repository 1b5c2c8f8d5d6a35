// Package ranker implements the vault's fuzzy search ranking: a
// word-tokenized, ASCII-case-folded Levenshtein distance between a search
// query and an entry's name, and the listing sort order built on it.
package ranker

import (
	"sort"
	"strings"

	"github.com/cooky451/passchain-go/internal/vault/model"
)

// levenshteinBound is the column bound on Levenshtein distance; strings
// longer than this are treated as distance 0 rather than paying for an
// O(n*m) comparison.
const levenshteinBound = 4096

// Levenshtein computes edit distance with unit operation cost. Either
// string longer than levenshteinBound short-circuits to 0 (effectively
// unranked) rather than computed.
func Levenshtein(a, b string) int {
	if len(a) > levenshteinBound || len(b) > levenshteinBound {
		return 0
	}
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// wordToWordDistance is the minimum Levenshtein distance from q to any
// substring of n with length len(q). When q is at least as long as n,
// there is no such substring, so n as a whole is used instead.
func wordToWordDistance(q, n string) int {
	if len(q) >= len(n) {
		return Levenshtein(q, n)
	}
	best := -1
	for start := 0; start+len(q) <= len(n); start++ {
		d := Levenshtein(q, n[start:start+len(q)])
		if best == -1 || d < best {
			best = d
		}
	}
	return best
}

// Distance computes the word-based distance from query to name: for each
// whitespace-separated word in query, the minimum wordToWordDistance
// against every word of name, summed. Comparisons are ASCII case-folded.
func Distance(query, name string) int {
	queryWords := strings.Fields(foldASCII(query))
	nameWords := strings.Fields(foldASCII(name))

	total := 0
	for _, q := range queryWords {
		best := -1
		for _, n := range nameWords {
			d := wordToWordDistance(q, n)
			if best == -1 || d < best {
				best = d
			}
		}
		if best == -1 {
			best = len(q)
		}
		total += best
	}
	return total
}

// Rank orders entries for a listing: non-hidden before hidden, then
// ascending distance to query, then lexicographic by name. The input
// slice is not modified; a new, sorted slice is returned.
func Rank(entries []*model.Entry, query string) []*model.Entry {
	type scored struct {
		entry    *model.Entry
		distance int
	}

	scoredEntries := make([]scored, len(entries))
	for i, e := range entries {
		scoredEntries[i] = scored{entry: e, distance: Distance(query, e.Name)}
	}

	sort.SliceStable(scoredEntries, func(i, j int) bool {
		a, b := scoredEntries[i], scoredEntries[j]
		if a.entry.Hidden != b.entry.Hidden {
			return !a.entry.Hidden
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.entry.Name < b.entry.Name
	})

	out := make([]*model.Entry, len(entries))
	for i, s := range scoredEntries {
		out[i] = s.entry
	}
	return out
}
