package lexical

import (
	"fmt"
	"strings"
)

// Query is a compiled lexical filter set.
type Query struct {
	Terms    []string
	Patterns []Pattern
	PathLike string
}

// Active reports whether any filter is set.
func (q Query) Active() bool {
	return len(q.Terms) > 0 || len(q.Patterns) > 0 || q.PathLike != ""
}

// PathOnly reports whether the path filter is the only active filter.
func (q Query) PathOnly() bool {
	return q.PathLike != "" && len(q.Terms) == 0 && len(q.Patterns) == 0
}

// Match is the outcome of evaluating one candidate.
type Match struct {
	Score       float64
	Metrics     Metrics
	PathMatched bool
	Baseline    bool
	Signals     []Signal
}

// Candidate returns the ranking key of the match.
func (m Match) Candidate() Candidate {
	cats := 0
	if m.PathMatched {
		cats++
	}
	if m.Metrics.TermHits > 0 {
		cats++
	}
	if m.Metrics.RegexHits > 0 {
		cats++
	}
	return Candidate{
		Score:      m.Score,
		Categories: cats,
		RawHits:    m.Metrics.RawHits(),
		DocLength:  m.Metrics.DocLength,
	}
}

// Why renders the match signals.
func (m Match) Why() []string {
	out := make([]string, len(m.Signals))
	for i, s := range m.Signals {
		out[i] = s.String()
	}
	return out
}

// Evaluate scores doc located at sourcePath. ok is false when the
// candidate fails any active filter.
func (q Query) Evaluate(doc, sourcePath string) (match Match, ok bool) {
	if !q.Active() {
		return Match{}, false
	}
	if q.PathLike != "" {
		if !strings.Contains(strings.ToLower(sourcePath), strings.ToLower(q.PathLike)) {
			return Match{}, false
		}
		match.PathMatched = true
	}

	match.Score, match.Metrics = Score(doc, q.Terms, q.Patterns)
	if !Satisfies(match.Metrics, q.Terms, q.Patterns) {
		return Match{}, false
	}
	if q.PathOnly() && match.Score < PathOnlyBaseline {
		match.Score = PathOnlyBaseline
		match.Baseline = true
	}
	match.Signals = q.signals(match)
	return match, true
}

func (q Query) signals(m Match) []Signal {
	var out []Signal
	for _, t := range q.Terms {
		if n := m.Metrics.PerTerm[t]; n > 0 {
			out = append(out, Signal{Kind: SignalTerm, Value: t, Count: n})
		}
	}
	for _, p := range q.Patterns {
		if n := m.Metrics.PerRegex[p.source]; n > 0 {
			out = append(out, Signal{Kind: SignalRegex, Value: p.source, Count: n})
		}
	}
	if m.PathMatched {
		out = append(out, Signal{Kind: SignalPath, Value: q.PathLike})
	}
	if m.Baseline {
		out = append(out, Signal{Kind: SignalBaseline, Score: PathOnlyBaseline})
	}
	return out
}

// SignalKind classifies a match signal.
type SignalKind string

// Signal kinds.
const (
	SignalTerm     SignalKind = "term"
	SignalRegex    SignalKind = "regex"
	SignalPath     SignalKind = "path"
	SignalBaseline SignalKind = "baseline"
)

// Signal is one piece of match evidence.
type Signal struct {
	Kind  SignalKind
	Value string
	Count int
	Score float64
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalTerm:
		return fmt.Sprintf("matched term '%s' x%d", s.Value, s.Count)
	case SignalRegex:
		return fmt.Sprintf("matched regex '%s' x%d", s.Value, s.Count)
	case SignalPath:
		return fmt.Sprintf("path contains '%s'", s.Value)
	case SignalBaseline:
		return fmt.Sprintf("path-only match baseline applied: %.2f", s.Score)
	default:
		return string(s.Kind)
	}
}
