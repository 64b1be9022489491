// Package summaries stores one embedded summary per document and answers
// nearest-neighbour queries over them.
package summaries

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/neumann/internal/db"
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/repository/collection"
)

// store is the consumer interface for summaries (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.SummaryFinder and the indexing summary sink.
type Repo struct {
	store      store
	model      string
	dimensions int
}

// New creates a summary repository. dimensions > 0 enforces the vector size on write.
func New(s store, vec domain.VectorConfig) *Repo {
	return &Repo{store: s, model: vec.Model, dimensions: vec.Dimensions}
}

// Upsert writes summaries with their vectors. Every entry needs a vector.
func (r *Repo) Upsert(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			return fmt.Errorf("%w: summary id is required", domain.ErrValidation)
		}
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: summary %s has no vector", domain.ErrValidation, e.ID)
		}
		if r.dimensions > 0 && len(e.Vector) != r.dimensions {
			return fmt.Errorf("summary %s: %w", e.ID, domain.NewDimensionMismatch(r.model, r.dimensions, len(e.Vector)))
		}
		items[i] = db.HashSetItem{
			Key:    collection.Key(domain.SummariesCollection, e.ID),
			Fields: collection.EncodeEntry(e),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset summaries: %w", err)
	}
	return nil
}

// Get returns a stored summary, vector included.
func (r *Repo) Get(ctx context.Context, id string) (domain.Entry, error) {
	key := collection.Key(domain.SummariesCollection, id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.Entry{}, domain.ErrNotFound
	}
	return collection.DecodeEntry(domain.SummariesCollection, key, fields), nil
}

// Nearest returns the n summaries closest to vector, nearest first, with raw distances.
func (r *Repo) Nearest(ctx context.Context, vector []float32, n int) ([]domain.Neighbor, error) {
	if n <= 0 {
		return []domain.Neighbor{}, nil
	}
	if len(vector) == 0 {
		return nil, errors.New("query vector is empty")
	}
	if r.dimensions > 0 && len(vector) != r.dimensions {
		return nil, domain.NewDimensionMismatch(r.model, r.dimensions, len(vector))
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    collection.IndexName(domain.SummariesCollection),
		VectorField:  collection.FieldVector,
		Vector:       vector,
		K:            n,
		ReturnFields: collection.ReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn summaries: %w", err)
	}

	out := make([]domain.Neighbor, 0, len(res.Entries))
	for _, e := range res.Entries {
		nb := domain.Neighbor{Entry: collection.DecodeEntry(domain.SummariesCollection, e.Key, e.Fields)}
		if e.Scored {
			d := e.Score
			nb.Distance = &d
		}
		out = append(out, nb)
	}
	return out, nil
}
