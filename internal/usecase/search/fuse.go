package search

import (
	"sort"

	"github.com/kailas-cloud/neumann/internal/domain/meta"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// Fuse merges lexical and semantic results keyed by document id. Only the
// first occurrence of an id in each list counts. An id found in both lists
// scores wSem*sem + wLex*lex; an id found in one keeps that channel's score.
// Output is ordered by score, then by RRF score, then by id, and holds at
// most k results.
func Fuse(lex, sem []result.Result, k int, wSem, wLex float64) []result.Result {
	if k <= 0 {
		return []result.Result{}
	}

	type entry struct {
		lex, sem         *result.Result
		lexRank, semRank int
	}

	merged := make(map[string]*entry, len(lex)+len(sem))
	order := make([]string, 0, len(lex)+len(sem))
	get := func(id string) *entry {
		e, ok := merged[id]
		if !ok {
			e = &entry{lexRank: -1, semRank: -1}
			merged[id] = e
			order = append(order, id)
		}
		return e
	}

	for rank := range lex {
		e := get(lex[rank].DocID())
		if e.lex == nil {
			e.lex, e.lexRank = &lex[rank], rank
		}
	}
	for rank := range sem {
		e := get(sem[rank].DocID())
		if e.sem == nil {
			e.sem, e.semRank = &sem[rank], rank
		}
	}

	out := make([]result.Result, 0, len(order))
	for _, id := range order {
		e := merged[id]

		var rrf, semScore, lexScore float64
		if e.semRank >= 0 {
			rrf += 1.0 / float64(rrfK+e.semRank+1)
			semScore = e.sem.Score()
		}
		if e.lexRank >= 0 {
			rrf += 1.0 / float64(rrfK+e.lexRank+1)
			lexScore = e.lex.Score()
		}

		var combined float64
		switch {
		case e.sem != nil && e.lex != nil:
			combined = wSem*semScore + wLex*lexScore
		case e.sem != nil:
			combined = semScore
		default:
			combined = lexScore
		}

		md, why := mergeAux(e.lex, e.sem)
		out = append(out, result.New(id, combined, md, why).WithChannels(semScore, lexScore, rrf))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score() != out[j].Score() {
			return out[i].Score() > out[j].Score()
		}
		if out[i].RRFScore() != out[j].RRFScore() {
			return out[i].RRFScore() > out[j].RRFScore()
		}
		return out[i].DocID() < out[j].DocID()
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}

// mergeAux combines metadata and explanations. Lexical values win for
// source path and line range; page URIs are unioned lexical first; why
// lists lexical evidence before semantic.
func mergeAux(lex, sem *result.Result) (meta.Record, []string) {
	var md meta.Record
	var why []string
	var lexURIs, semURIs []string

	if sem != nil {
		md = sem.Metadata()
		semURIs = sem.PageURIs()
	}
	if lex != nil {
		md = md.Overlay(lex.Metadata())
		lexURIs = lex.PageURIs()
		why = append(why, lex.Why()...)
	}
	if sem != nil {
		why = append(why, sem.Why()...)
	}
	md.PageURIs = meta.MergeLists(lexURIs, semURIs)
	return md, why
}
