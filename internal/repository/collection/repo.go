package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/neumann/internal/db"
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/meta"
)

// Storage field names shared by the chunk and summary repositories.
const (
	FieldText   = "text"
	FieldVector = "vector"
)

// store is the consumer interface for index management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo bootstraps the two logical collections: summaries (with a vector
// field) and code chunks (tag and numeric fields only).
type Repo struct {
	store store
	vec   domain.VectorConfig
	hnsw  HNSWConfig
}

// New creates a collection repository.
func New(s store, vec domain.VectorConfig) *Repo {
	return &Repo{store: s, vec: vec, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Definitions builds the FT index definitions of both collections.
func (r *Repo) Definitions() ([]*db.IndexDefinition, error) {
	distance, ok := db.ParseDistance(r.vec.DistanceMetric)
	if !ok {
		return nil, fmt.Errorf("%w: unknown distance metric %q", domain.ErrMisconfigured, r.vec.DistanceMetric)
	}

	algo, ok := db.ParseAlgorithm(r.vec.Algorithm)
	if !ok {
		return nil, fmt.Errorf("%w: unknown vector algorithm %q", domain.ErrMisconfigured, r.vec.Algorithm)
	}

	summaries := db.NewIndex(IndexName(domain.SummariesCollection), Prefix(domain.SummariesCollection)).
		Tags(meta.KeyDocID, meta.KeyLang).
		ListTag(meta.KeyProductTags).
		Vector(FieldVector, db.VectorSpec{
			Dim:         r.vec.Dimensions,
			Distance:    distance,
			Algorithm:   algo,
			M:           r.hnsw.M,
			EFConstruct: r.hnsw.EFConstruct,
		})

	code := db.NewIndex(IndexName(domain.CodeCollection), Prefix(domain.CodeCollection)).
		Tags(meta.KeyDocID, meta.KeyLang).
		Numerics(meta.KeyLineStart, meta.KeyLineEnd)

	defs := make([]*db.IndexDefinition, 0, 2)
	for _, b := range []*db.IndexBuilder{summaries, code} {
		def, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// EnsureIndexes creates missing indexes and returns the names it created.
func (r *Repo) EnsureIndexes(ctx context.Context) ([]string, error) {
	defs, err := r.Definitions()
	if err != nil {
		return nil, err
	}

	var created []string
	for _, def := range defs {
		exists, err := r.store.IndexExists(ctx, def.Name)
		if err != nil {
			return created, fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}
		if err := r.store.CreateIndex(ctx, def); err != nil {
			if errors.Is(err, db.ErrIndexExists) {
				continue // created concurrently
			}
			return created, fmt.Errorf("create index %s: %w", def.Name, err)
		}
		created = append(created, def.Name)
	}
	return created, nil
}

// DropIndexes removes both indexes. Stored hashes survive and are
// re-indexed by the next EnsureIndexes.
func (r *Repo) DropIndexes(ctx context.Context) error {
	var errs []error
	for _, name := range []string{IndexName(domain.SummariesCollection), IndexName(domain.CodeCollection)} {
		if err := r.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			errs = append(errs, fmt.Errorf("drop index %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
