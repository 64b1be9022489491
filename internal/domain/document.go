package domain

import "github.com/kailas-cloud/neumann/internal/domain/meta"

// Entry is a stored item of a collection: a chunk or a summary.
type Entry struct {
	ID       string
	Text     string
	Metadata meta.Record
	Vector   []float32 // summaries only
}

// DocID returns the owning document id, falling back to the entry id.
func (e *Entry) DocID() string {
	if e.Metadata.DocID != "" {
		return e.Metadata.DocID
	}
	return e.ID
}

// Neighbor is a nearest-neighbour hit with its raw distance. A nil
// distance means the index did not report one.
type Neighbor struct {
	Entry
	Distance *float64
}
