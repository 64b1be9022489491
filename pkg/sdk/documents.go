package neumann

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/neumann/internal/domain"
)

// Document is an indexed document as described by its summary.
type Document struct {
	DocID       string
	SourcePath  string
	Language    string
	LastUpdated string
	Summary     string
	PageURIs    []string
	Metadata    map[string]any
}

// Chunk is one stored line window of a document.
type Chunk struct {
	ID         string
	DocID      string
	Text       string
	SourcePath string
	LineStart  int
	LineEnd    int
}

// Document returns the summary of docID, or ErrNotFound.
func (c *Client) Document(ctx context.Context, docID string) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opDocument, start, err) }()

	e, err := c.summaries.Get(ctx, docID)
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", docID, err)
	}
	md := e.Metadata
	return Document{
		DocID:       e.DocID(),
		SourcePath:  md.SourcePath,
		Language:    md.Lang,
		LastUpdated: md.LastUpdated,
		Summary:     e.Text,
		PageURIs:    md.PageURIs,
		Metadata:    md.Map(),
	}, nil
}

// Chunks returns up to limit stored chunks of docID.
func (c *Client) Chunks(ctx context.Context, docID string, limit int) (out []Chunk, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opChunks, start, err) }()

	entries, err := c.chunks.ByDoc(ctx, docID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chunks of %s: %w", docID, err)
	}
	out = make([]Chunk, len(entries))
	for i := range entries {
		out[i] = toChunk(&entries[i])
	}
	return out, nil
}

func toChunk(e *domain.Entry) Chunk {
	return Chunk{
		ID:         e.ID,
		DocID:      e.DocID(),
		Text:       e.Text,
		SourcePath: e.Metadata.SourcePath,
		LineStart:  e.Metadata.LineStart,
		LineEnd:    e.Metadata.LineEnd,
	}
}
