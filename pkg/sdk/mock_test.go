package neumann

import (
	"context"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/search/request"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/neumann/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/neumann/internal/usecase/indexing"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) ([]result.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	return m.searchFn(ctx, req)
}

// --- indexingUseCase mock ---

type mockIndexingUC struct {
	dirFn  func(ctx context.Context, inputDir, outDir string) (indexinguc.Report, error)
	fileFn func(ctx context.Context, src, inputDir, outDir string) (indexinguc.FileResult, error)
}

func (m *mockIndexingUC) IndexDir(ctx context.Context, inputDir, outDir string) (indexinguc.Report, error) {
	return m.dirFn(ctx, inputDir, outDir)
}

func (m *mockIndexingUC) IndexFile(ctx context.Context, src, inputDir, outDir string) (indexinguc.FileResult, error) {
	return m.fileFn(ctx, src, inputDir, outDir)
}

// --- indexManager mock ---

type mockIndexes struct {
	ensureErr error
	dropErr   error
	ensured   int
	dropped   int
}

func (m *mockIndexes) EnsureIndexes(context.Context) ([]string, error) {
	m.ensured++
	return nil, m.ensureErr
}

func (m *mockIndexes) DropIndexes(context.Context) error {
	m.dropped++
	return m.dropErr
}

// --- readers ---

type mockSummaries struct {
	getFn func(ctx context.Context, id string) (domain.Entry, error)
}

func (m *mockSummaries) Get(ctx context.Context, id string) (domain.Entry, error) {
	return m.getFn(ctx, id)
}

type mockChunks struct {
	byDocFn func(ctx context.Context, docID string, limit int) ([]domain.Entry, error)
}

func (m *mockChunks) ByDoc(ctx context.Context, docID string, limit int) ([]domain.Entry, error) {
	return m.byDocFn(ctx, docID, limit)
}

// --- health mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- store mock ---

type mockStore struct {
	pingErr error
	closed  bool
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }
func (m *mockStore) Close()                     { m.closed = true }
