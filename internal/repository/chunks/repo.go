// Package chunks stores raw line chunks of source documents. Chunks carry
// no vectors; the lexical channel re-scores them in process.
package chunks

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/neumann/internal/db"
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/meta"
	"github.com/kailas-cloud/neumann/internal/repository/collection"
)

const pageSize = 500

// store is the consumer interface for chunks (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	Del(ctx context.Context, keys ...string) error
}

// Repo implements usecase/search.ChunkScanner and the indexing chunk sink.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert writes chunks in one pipelined round-trip. Existing ids are overwritten.
func (r *Repo) Upsert(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(entries))
	for i := range entries {
		if entries[i].ID == "" {
			return fmt.Errorf("%w: chunk id is required", domain.ErrValidation)
		}
		items[i] = db.HashSetItem{
			Key:    collection.Key(domain.CodeCollection, entries[i].ID),
			Fields: collection.EncodeEntry(&entries[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset chunks: %w", err)
	}
	return nil
}

// ScanChunks pages through the whole code index and hands each decoded page
// to fn. A positive limit stops the scan after that many chunks and reports
// truncated when more remained.
func (r *Repo) ScanChunks(
	ctx context.Context, limit int, fn func([]domain.Entry) error,
) (truncated bool, err error) {
	return r.scan(ctx, nil, limit, fn)
}

// ByDoc returns every chunk of a document.
func (r *Repo) ByDoc(ctx context.Context, docID string, limit int) ([]domain.Entry, error) {
	return r.list(ctx, []db.TagMatch{{Field: meta.KeyDocID, Values: []string{docID}}}, limit)
}

// DeleteDoc removes every chunk of a document and returns how many were removed.
func (r *Repo) DeleteDoc(ctx context.Context, docID string) (int, error) {
	q := &db.ListQuery{
		IndexName:    collection.IndexName(domain.CodeCollection),
		Filter:       []db.TagMatch{{Field: meta.KeyDocID, Values: []string{docID}}},
		Limit:        pageSize,
		ReturnFields: []string{meta.KeyDocID},
	}

	removed := 0
	for {
		res, err := r.store.SearchList(ctx, q)
		if err != nil {
			return removed, fmt.Errorf("search chunks of %s: %w", docID, err)
		}
		if len(res.Entries) == 0 {
			return removed, nil
		}
		keys := make([]string, len(res.Entries))
		for i, e := range res.Entries {
			keys[i] = e.Key
		}
		if err := r.store.Del(ctx, keys...); err != nil {
			return removed, fmt.Errorf("del chunks of %s: %w", docID, err)
		}
		removed += len(keys)
		if len(res.Entries) < pageSize {
			return removed, nil
		}
	}
}

func (r *Repo) list(ctx context.Context, filter []db.TagMatch, limit int) ([]domain.Entry, error) {
	if limit <= 0 {
		return []domain.Entry{}, nil
	}
	out := make([]domain.Entry, 0, min(limit, pageSize))
	_, err := r.scan(ctx, filter, limit, func(page []domain.Entry) error {
		out = append(out, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scan walks the index page by page until the result set or limit is exhausted.
// limit <= 0 means no limit.
func (r *Repo) scan(
	ctx context.Context, filter []db.TagMatch, limit int, fn func([]domain.Entry) error,
) (bool, error) {
	seen := 0
	for {
		size := pageSize
		if limit > 0 {
			if seen >= limit {
				return true, nil
			}
			size = min(pageSize, limit-seen)
		}
		res, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName:    collection.IndexName(domain.CodeCollection),
			Filter:       filter,
			Offset:       seen,
			Limit:        size,
			ReturnFields: collection.ReturnFields,
		})
		if err != nil {
			return false, fmt.Errorf("search chunks: %w", err)
		}
		if len(res.Entries) == 0 {
			return false, nil
		}
		page := make([]domain.Entry, len(res.Entries))
		for i, e := range res.Entries {
			page[i] = collection.DecodeEntry(domain.CodeCollection, e.Key, e.Fields)
		}
		if err := fn(page); err != nil {
			return false, err
		}
		seen += len(res.Entries)
		if seen >= res.Total {
			return false, nil
		}
	}
}
