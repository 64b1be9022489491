package chunks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/neumann/internal/db"
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/meta"
	"github.com/kailas-cloud/neumann/internal/repository/collection"
)

func chunkEntry(i int) db.SearchEntry {
	id := fmt.Sprintf("src__a.go#L%d-%d", i, i+1)
	return db.SearchEntry{
		Key: collection.Key(domain.CodeCollection, id),
		Fields: map[string]string{
			collection.FieldText: "line",
			meta.KeyDocID:        "src__a.go",
			meta.KeySourcePath:   "src/a.go",
			meta.KeyLineStart:    fmt.Sprint(i),
		},
	}
}

func TestUpsert(t *testing.T) {
	repo, ms := newTestRepo(t)
	var got []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		got = items
		return nil
	}

	err := repo.Upsert(context.Background(), []domain.Entry{{
		ID:       "src__a.go#L1-180",
		Text:     "package a\n",
		Metadata: meta.Record{DocID: "src__a.go", SourcePath: "src/a.go", LineStart: 1, LineEnd: 180},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Key != "neumann:search_code:src__a.go#L1-180" {
		t.Errorf("key = %q", got[0].Key)
	}
	if got[0].Fields[meta.KeyLineEnd] != "180" || got[0].Fields[collection.FieldText] != "package a\n" {
		t.Errorf("fields = %v", got[0].Fields)
	}
}

func TestUpsert_Validation(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Fatal("store must not be called")
		return nil
	}
	if err := repo.Upsert(context.Background(), []domain.Entry{{Text: "x"}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := repo.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert: %v", err)
	}
}

func pagedStore(t *testing.T, ms *mockStore, total int) *[]int {
	t.Helper()
	var offsets []int
	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if q.IndexName != collection.IndexName(domain.CodeCollection) {
			t.Errorf("index = %q", q.IndexName)
		}
		if len(q.Filter) != 0 {
			t.Errorf("unexpected filter: %v", q.Filter)
		}
		offsets = append(offsets, q.Offset)
		res := &db.SearchResult{Total: total}
		for i := q.Offset; i < min(total, q.Offset+q.Limit); i++ {
			res.Entries = append(res.Entries, chunkEntry(i+1))
		}
		return res, nil
	}
	return &offsets
}

func TestScanChunks_WholeCollection(t *testing.T) {
	repo, ms := newTestRepo(t)
	offsets := pagedStore(t, ms, 1200)

	var pages []int
	var got []domain.Entry
	truncated, err := repo.ScanChunks(context.Background(), 0, func(page []domain.Entry) error {
		pages = append(pages, len(page))
		got = append(got, page...)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truncated {
		t.Error("full scan reported truncation")
	}
	if len(got) != 1200 {
		t.Fatalf("expected 1200 chunks, got %d", len(got))
	}
	if len(pages) != 3 || pages[0] != pageSize || pages[2] != 200 {
		t.Errorf("page sizes = %v", pages)
	}
	if o := *offsets; len(o) != 3 || o[1] != pageSize || o[2] != 2*pageSize {
		t.Errorf("offsets = %v", o)
	}
	first := got[0]
	if first.ID != "src__a.go#L1-2" || first.Metadata.SourcePath != "src/a.go" || first.DocID() != "src__a.go" {
		t.Errorf("first = %+v", first)
	}
}

func TestScanChunks_LimitTruncates(t *testing.T) {
	repo, ms := newTestRepo(t)
	offsets := pagedStore(t, ms, 1200)

	n := 0
	truncated, err := repo.ScanChunks(context.Background(), 700, func(page []domain.Entry) error {
		n += len(page)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !truncated || n != 700 {
		t.Errorf("truncated=%v scanned=%d", truncated, n)
	}
	if len(*offsets) != 2 {
		t.Errorf("offsets = %v", *offsets)
	}
}

func TestScanChunks_LimitCoversCollection(t *testing.T) {
	repo, ms := newTestRepo(t)
	pagedStore(t, ms, 2)

	truncated, err := repo.ScanChunks(context.Background(), 2, func([]domain.Entry) error { return nil })
	if err != nil || truncated {
		t.Fatalf("truncated=%v err=%v", truncated, err)
	}
}

func TestScanChunks_StopsAtTotal(t *testing.T) {
	repo, ms := newTestRepo(t)
	calls := 0
	ms.searchListFn = func(_ context.Context, _ *db.ListQuery) (*db.SearchResult, error) {
		calls++
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{chunkEntry(1), chunkEntry(2)}}, nil
	}

	n := 0
	if _, err := repo.ScanChunks(context.Background(), 0, func(page []domain.Entry) error {
		n += len(page)
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || calls != 1 {
		t.Errorf("got %d chunks in %d calls", n, calls)
	}
}

func TestScanChunks_Errors(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		repo, ms := newTestRepo(t)
		boom := errors.New("boom")
		ms.searchListFn = func(_ context.Context, _ *db.ListQuery) (*db.SearchResult, error) { return nil, boom }

		if _, err := repo.ScanChunks(context.Background(), 0, func([]domain.Entry) error { return nil }); !errors.Is(err, boom) {
			t.Fatalf("expected wrapped error, got %v", err)
		}
	})

	t.Run("callback", func(t *testing.T) {
		repo, ms := newTestRepo(t)
		pagedStore(t, ms, 1200)
		stop := errors.New("stop")
		calls := 0
		_, err := repo.ScanChunks(context.Background(), 0, func([]domain.Entry) error {
			calls++
			return stop
		})
		if !errors.Is(err, stop) || calls != 1 {
			t.Fatalf("err=%v calls=%d", err, calls)
		}
	})
}

func TestByDoc_UsesTagFilter(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if len(q.Filter) != 1 || q.Filter[0].Field != meta.KeyDocID || q.Filter[0].Values[0] != "src__a.go" {
			t.Errorf("filter = %+v", q.Filter)
		}
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{chunkEntry(1)}}, nil
	}

	got, err := repo.ByDoc(context.Background(), "src__a.go", 100)
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestDeleteDoc(t *testing.T) {
	repo, ms := newTestRepo(t)
	remaining := 3
	ms.searchListFn = func(_ context.Context, _ *db.ListQuery) (*db.SearchResult, error) {
		res := &db.SearchResult{Total: remaining}
		for i := range remaining {
			res.Entries = append(res.Entries, chunkEntry(i))
		}
		return res, nil
	}
	var deleted []string
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = append(deleted, keys...)
		remaining = 0
		return nil
	}

	n, err := repo.DeleteDoc(context.Background(), "src__a.go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || len(deleted) != 3 {
		t.Errorf("removed %d, deleted keys %v", n, deleted)
	}
}
