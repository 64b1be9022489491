// Package lexical scores candidate text against literal terms and regular
// expressions and orders the matches deterministically.
package lexical

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Scoring constants.
const (
	// HitCap bounds the contribution of any single term or pattern.
	HitCap = 3

	TermWeight  = 1.0
	RegexWeight = 1.5

	// PathOnlyBaseline is the floor score of a match on the path filter alone.
	PathOnlyBaseline = 0.25

	lengthPenaltySlope = 0.2
	lengthPenaltyUnit  = 1000.0
)

// Pattern is a compiled case-insensitive, multiline regular expression.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// String returns the pattern as supplied by the caller.
func (p Pattern) String() string { return p.source }

// Compile compiles patterns with case-insensitive and multiline flags.
// Patterns that fail to compile are returned in invalid and otherwise ignored.
func Compile(patterns []string) (compiled []Pattern, invalid []string) {
	for _, src := range patterns {
		if src == "" {
			continue
		}
		re, err := regexp.Compile("(?im)" + src)
		if err != nil {
			invalid = append(invalid, src)
			continue
		}
		compiled = append(compiled, Pattern{source: src, re: re})
	}
	return compiled, invalid
}

// Metrics is the per-candidate diagnostic record of a scoring call.
type Metrics struct {
	TermHits      int // uncapped
	RegexHits     int // uncapped
	PerTerm       map[string]int
	PerRegex      map[string]int
	DocLength     int
	Raw           float64
	MaxRaw        float64
	LengthPenalty float64
}

// RawHits is the total uncapped hit count.
func (m Metrics) RawHits() int { return m.TermHits + m.RegexHits }

// Score computes the bounded relevance of doc. Each term counts
// case-insensitive non-overlapping occurrences, each pattern counts
// non-empty matches; both are capped at HitCap, weighted, normalized by
// the maximum attainable raw score and divided by a length penalty.
func Score(doc string, terms []string, patterns []Pattern) (float64, Metrics) {
	m := Metrics{
		PerTerm:   make(map[string]int, len(terms)),
		PerRegex:  make(map[string]int, len(patterns)),
		DocLength: utf8.RuneCountInString(doc),
	}

	lower := strings.ToLower(doc)
	var cappedTerms, cappedRegex int
	for _, t := range terms {
		n := 0
		if t != "" {
			n = strings.Count(lower, strings.ToLower(t))
		}
		m.PerTerm[t] = n
		m.TermHits += n
		cappedTerms += min(n, HitCap)
	}
	for _, p := range patterns {
		n := 0
		for _, loc := range p.re.FindAllStringIndex(doc, -1) {
			if loc[1] > loc[0] {
				n++
			}
		}
		m.PerRegex[p.source] = n
		m.RegexHits += n
		cappedRegex += min(n, HitCap)
	}

	m.Raw = TermWeight*float64(cappedTerms) + RegexWeight*float64(cappedRegex)
	m.MaxRaw = TermWeight*float64(len(terms)*HitCap) + RegexWeight*float64(len(patterns)*HitCap)
	m.LengthPenalty = 1 + lengthPenaltySlope*math.Log1p(float64(m.DocLength)/lengthPenaltyUnit)
	if m.MaxRaw == 0 {
		return 0, m
	}

	return clamp01(m.Raw / m.MaxRaw / m.LengthPenalty), m
}

// Satisfies applies filter semantics: every term must occur, and when
// patterns are present at least one must match.
func Satisfies(m Metrics, terms []string, patterns []Pattern) bool {
	for _, t := range terms {
		if m.PerTerm[t] == 0 {
			return false
		}
	}
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if m.PerRegex[p.source] > 0 {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0, math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
