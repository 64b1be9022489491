package indexing

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/neumann/internal/domain"
)

type mockChunks struct {
	mu        sync.Mutex
	upserted  map[string][]domain.Entry
	deleted   []string
	upsertErr error
	deleteErr error
}

func (m *mockChunks) Upsert(_ context.Context, entries []domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.upserted == nil {
		m.upserted = make(map[string][]domain.Entry)
	}
	for _, e := range entries {
		m.upserted[e.DocID()] = append(m.upserted[e.DocID()], e)
	}
	return nil
}

func (m *mockChunks) DeleteDoc(_ context.Context, docID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.deleted = append(m.deleted, docID)
	n := len(m.upserted[docID])
	delete(m.upserted, docID)
	return n, nil
}

type mockSummaries struct {
	mu      sync.Mutex
	entries []domain.Entry
}

func (m *mockSummaries) Upsert(_ context.Context, entries []domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func newTestService(t *testing.T, cfg Config, withSummaries bool) (*Service, *mockChunks, *mockSummaries, *mockEmbedder) {
	t.Helper()
	ch := &mockChunks{}
	var (
		sm  *mockSummaries
		emb *mockEmbedder
		svc *Service
		err error
	)
	if withSummaries {
		sm = &mockSummaries{}
		emb = &mockEmbedder{}
		svc, err = New(ch, sm, emb, cfg, zap.NewNop())
	} else {
		svc, err = New(ch, nil, nil, cfg, zap.NewNop())
	}
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, ch, sm, emb
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
