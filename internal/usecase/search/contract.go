package search

import (
	"context"

	"github.com/kailas-cloud/neumann/internal/domain"
)

// ChunkScanner streams the chunk collection page by page.
// The chunk index has no text fields, so the service re-scores and filters every chunk.
type ChunkScanner interface {
	ScanChunks(ctx context.Context, limit int, fn func([]domain.Entry) error) (truncated bool, err error)
}

// SummaryFinder runs nearest-neighbour queries over document summaries.
type SummaryFinder interface {
	Nearest(ctx context.Context, vector []float32, n int) ([]domain.Neighbor, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
