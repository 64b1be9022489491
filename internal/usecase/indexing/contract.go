package indexing

import (
	"context"

	"github.com/kailas-cloud/neumann/internal/domain"
)

// ChunkStore persists line chunks and replaces a document's previous chunks.
type ChunkStore interface {
	Upsert(ctx context.Context, entries []domain.Entry) error
	DeleteDoc(ctx context.Context, docID string) (int, error)
}

// SummaryStore persists embedded summaries.
type SummaryStore interface {
	Upsert(ctx context.Context, entries []domain.Entry) error
}

// Embedder vectorizes summary bodies.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
