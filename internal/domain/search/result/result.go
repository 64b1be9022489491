package result

import "github.com/kailas-cloud/neumann/internal/domain/meta"

// Result is a single search hit, one per document id.
type Result struct {
	docID    string
	score    float64
	semScore float64
	lexScore float64
	rrfScore float64
	why      []string
	metadata meta.Record
}

// New creates a single-channel search result. Source path, page URIs and
// line range are taken from md.
func New(docID string, score float64, md meta.Record, why []string) Result {
	if md.DocID == "" {
		md.DocID = docID
	}
	return Result{docID: docID, score: score, metadata: md, why: why}
}

// WithChannels returns a copy carrying per-channel and rank-fusion scores.
func (r Result) WithChannels(sem, lex, rrf float64) Result {
	r.semScore, r.lexScore, r.rrfScore = sem, lex, rrf
	return r
}

// DocID returns the document identifier.
func (r *Result) DocID() string { return r.docID }

// Score returns the relevance score in [0,1].
func (r *Result) Score() float64 { return r.score }

// SemScore returns the semantic channel score, 0 when absent from that channel.
func (r *Result) SemScore() float64 { return r.semScore }

// LexScore returns the lexical channel score, 0 when absent from that channel.
func (r *Result) LexScore() float64 { return r.lexScore }

// RRFScore returns the reciprocal rank fusion tie-breaker.
func (r *Result) RRFScore() float64 { return r.rrfScore }

// SourcePath returns the original file path, "" when unknown.
func (r *Result) SourcePath() string { return r.metadata.SourcePath }

// PageURIs returns the rendered page images of the document.
func (r *Result) PageURIs() []string { return r.metadata.PageURIs }

// Lines returns the 1-indexed inclusive line range; ok is false when unknown.
func (r *Result) Lines() (start, end int, ok bool) {
	if r.metadata.LineStart <= 0 || r.metadata.LineEnd <= 0 {
		return 0, 0, false
	}
	return r.metadata.LineStart, r.metadata.LineEnd, true
}

// Why returns the human-readable match explanations.
func (r *Result) Why() []string { return r.why }

// Metadata returns the hydrated metadata record.
func (r *Result) Metadata() meta.Record { return r.metadata }
