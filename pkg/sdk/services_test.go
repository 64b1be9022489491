package neumann

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/meta"
	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
	"github.com/kailas-cloud/neumann/internal/domain/search/request"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/neumann/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/neumann/internal/usecase/indexing"
)

// --- Search ---

func TestSearch_Defaults(t *testing.T) {
	var got *request.Request
	c := &Client{searchSvc: &mockSearchUC{
		searchFn: func(_ context.Context, req *request.Request) ([]result.Result, error) {
			got = req
			return []result.Result{
				result.New("a.go", 0.7, meta.Record{
					SourcePath: "src/a.go",
					LineStart:  1,
					LineEnd:    180,
				}, []string{"path matches 'src/%'"}).WithChannels(0.5, 1, 0.02),
			}, nil
		},
	}}

	hits, err := c.Search(context.Background(), SearchQuery{Query: "retry", PathLike: "src/%"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Mode() != mode.Hybrid || got.K() != request.DefaultK {
		t.Errorf("request mode=%s k=%d", got.Mode(), got.K())
	}
	if ws, wl := got.Weights(); ws != 0.6 || wl != 0.4 {
		t.Errorf("weights = %v/%v", ws, wl)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d", len(hits))
	}
	h := hits[0]
	if h.DocID != "a.go" || h.SourcePath != "src/a.go" || h.LexScore != 1 || h.LineEnd != 180 {
		t.Errorf("hit = %+v", h)
	}
}

func TestSearch_ValidationError(t *testing.T) {
	c := &Client{searchSvc: &mockSearchUC{
		searchFn: func(context.Context, *request.Request) ([]result.Result, error) {
			t.Fatal("search must not run")
			return nil, nil
		},
	}}

	_, err := c.Search(context.Background(), SearchQuery{Mode: ModeLexical})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearch_ServiceError(t *testing.T) {
	c := &Client{searchSvc: &mockSearchUC{
		searchFn: func(context.Context, *request.Request) ([]result.Result, error) {
			return nil, domain.ErrMisconfigured
		},
	}}

	_, err := c.Search(context.Background(), SearchQuery{Mode: ModeSemantic, Query: "x"})
	if !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

// --- Indexing ---

func TestIndexDir(t *testing.T) {
	c := &Client{indexSvc: &mockIndexingUC{
		dirFn: func(_ context.Context, in, out string) (indexinguc.Report, error) {
			if in != "docs" || out != "out" {
				t.Errorf("dirs = %q, %q", in, out)
			}
			return indexinguc.Report{
				Files:     2,
				Chunks:    5,
				Summaries: 1,
				Failed:    []indexinguc.FileError{{Path: "docs/bad.txt", Err: domain.ErrValidation}},
			}, nil
		},
	}}

	rep, err := c.IndexDir(context.Background(), "docs", "out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Files != 2 || rep.Chunks != 5 || rep.Summaries != 1 {
		t.Errorf("report = %+v", rep)
	}
	if !errors.Is(rep.Failed["docs/bad.txt"], ErrValidation) {
		t.Errorf("failed = %v", rep.Failed)
	}
}

func TestIndexDir_Error(t *testing.T) {
	c := &Client{indexSvc: &mockIndexingUC{
		dirFn: func(context.Context, string, string) (indexinguc.Report, error) {
			return indexinguc.Report{}, context.Canceled
		},
	}}

	if _, err := c.IndexDir(context.Background(), "docs", "out"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIndexFile(t *testing.T) {
	c := &Client{indexSvc: &mockIndexingUC{
		fileFn: func(context.Context, string, string, string) (indexinguc.FileResult, error) {
			return indexinguc.FileResult{DocID: "a.go", Chunks: 3}, nil
		},
	}}

	id, n, err := c.IndexFile(context.Background(), "docs/a.go", "docs", "out")
	if err != nil || id != "a.go" || n != 3 {
		t.Fatalf("IndexFile = %q, %d, %v", id, n, err)
	}
}

func TestIndexes(t *testing.T) {
	idx := &mockIndexes{}
	c := &Client{indexes: idx}

	if err := c.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := c.DropIndexes(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if idx.ensured != 1 || idx.dropped != 1 {
		t.Errorf("calls = %+v", idx)
	}

	idx.ensureErr = errors.New("db down")
	if err := c.EnsureIndexes(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- Documents ---

func TestDocument(t *testing.T) {
	c := &Client{summaries: &mockSummaries{
		getFn: func(_ context.Context, id string) (domain.Entry, error) {
			if id != "guide" {
				return domain.Entry{}, domain.ErrNotFound
			}
			return domain.Entry{
				ID:   "guide",
				Text: "body",
				Metadata: meta.Record{
					DocID:    "guide",
					Lang:     "markdown",
					PageURIs: []string{"/out/guide/pages/page-0001.png"},
				},
			}, nil
		},
	}}

	doc, err := c.Document(context.Background(), "guide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Summary != "body" || doc.Language != "markdown" || len(doc.PageURIs) != 1 {
		t.Errorf("doc = %+v", doc)
	}

	if _, err := c.Document(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChunks(t *testing.T) {
	c := &Client{chunks: &mockChunks{
		byDocFn: func(_ context.Context, docID string, limit int) ([]domain.Entry, error) {
			if limit != 10 {
				t.Errorf("limit = %d", limit)
			}
			return []domain.Entry{{
				ID:       docID + "#L1-3",
				Text:     "a\nb\nc",
				Metadata: meta.Record{DocID: docID, LineStart: 1, LineEnd: 3},
			}}, nil
		},
	}}

	chunks, err := c.Chunks(context.Background(), "a.go", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].ID != "a.go#L1-3" || chunks[0].LineEnd != 3 {
		t.Errorf("chunks = %+v", chunks)
	}
}

// --- Health / Ping ---

func TestHealth(t *testing.T) {
	const codeIndex = "index:neumann:search_code:idx"
	checks := map[string]healthuc.CheckResult{"store": healthuc.CheckOK}
	checks[codeIndex] = healthuc.CheckMissing
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: checks,
	}}}

	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["store"] != "ok" || h.Checks[codeIndex] != "missing" {
		t.Errorf("health = %+v", h)
	}
}

func TestPingAndClose(t *testing.T) {
	store := &mockStore{pingErr: errors.New("down")}
	c := &Client{store: store}

	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
	c.Close()
	if !store.closed {
		t.Error("store not closed")
	}
}
