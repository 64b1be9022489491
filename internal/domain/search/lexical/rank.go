package lexical

import "sort"

// Candidate is the ranking key of a lexical match.
type Candidate struct {
	Score      float64
	Categories int // distinct matched categories: path, terms, regex
	RawHits    int
	DocLength  int
}

// Less reports whether a ranks ahead of b: higher score, then more matched
// categories, then more raw hits, then the shorter document.
func Less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Categories != b.Categories {
		return a.Categories > b.Categories
	}
	if a.RawHits != b.RawHits {
		return a.RawHits > b.RawHits
	}
	return a.DocLength < b.DocLength
}

// SortMatches orders items by their candidate keys. Equal keys keep input order.
func SortMatches[T any](items []T, key func(T) Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(key(items[i]), key(items[j]))
	})
}
