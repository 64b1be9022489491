package neumann

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/neumann/internal/db/redis"
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/search/request"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
	chunkrepo "github.com/kailas-cloud/neumann/internal/repository/chunks"
	collectionrepo "github.com/kailas-cloud/neumann/internal/repository/collection"
	summaryrepo "github.com/kailas-cloud/neumann/internal/repository/summaries"
	healthuc "github.com/kailas-cloud/neumann/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/neumann/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/neumann/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

type indexingUseCase interface {
	IndexDir(ctx context.Context, inputDir, outDir string) (indexinguc.Report, error)
	IndexFile(ctx context.Context, src, inputDir, outDir string) (indexinguc.FileResult, error)
}

type indexManager interface {
	EnsureIndexes(ctx context.Context) ([]string, error)
	DropIndexes(ctx context.Context) error
}

type summaryReader interface {
	Get(ctx context.Context, id string) (domain.Entry, error)
}

type chunkReader interface {
	ByDoc(ctx context.Context, docID string, limit int) ([]domain.Entry, error)
}

type closer interface {
	Ping(ctx context.Context) error
	Close()
}

// Client is the neumann SDK entry point.
type Client struct {
	store     closer
	indexes   indexManager
	searchSvc searchUseCase
	indexSvc  indexingUseCase
	summaries summaryReader
	chunks    chunkReader
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("neumann: database address required (use WithValkey or WithRedis)")
	}

	// Valkey-search and Redis Stack speak the same FT.* dialect.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("neumann: create %s store: %w", cfg.driver, err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("neumann: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func vectorConfig(cfg *clientConfig) domain.VectorConfig {
	vec := domain.DefaultVectorConfig()
	if cfg.vectorDimensions > 0 {
		vec.Dimensions = cfg.vectorDimensions
	}
	if cfg.distance != "" {
		vec.DistanceMetric = cfg.distance
	}
	return vec
}

func wireClient(store *dbRedis.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	vec := vectorConfig(cfg)
	logger := zap.NewNop()

	collRepo := collectionrepo.New(store, vec)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		collRepo = collRepo.WithHNSW(collectionrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	chunks := chunkrepo.New(store)
	summaries := summaryrepo.New(store, vec)

	// Keep the embedder interfaces nil when none is configured.
	var (
		queryEmb searchuc.Embedder
		indexEmb indexinguc.Embedder
		healthEm healthuc.EmbeddingChecker
	)
	if cfg.embedder != nil {
		a := &embedderAdapter{inner: cfg.embedder}
		queryEmb, indexEmb = a, a
		if hc, ok := cfg.embedder.(healthuc.EmbeddingChecker); ok {
			healthEm = hc
		}
	}

	searchSvc := searchuc.New(chunks, summaries, queryEmb, searchuc.Config{
		CandidateLimit: cfg.candidateLimit,
	}, logger)
	indexSvc, err := indexinguc.New(chunks, summaries, indexEmb, indexinguc.Config{
		LinesPerChunk: cfg.linesPerChunk,
		Overlap:       cfg.overlap,
		Workers:       cfg.workers,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("neumann: %w", err)
	}

	healthSvc := healthuc.New(store, store, []string{
		collectionrepo.IndexName(domain.SummariesCollection),
		collectionrepo.IndexName(domain.CodeCollection),
	}, healthEm)

	return &Client{
		store:     store,
		indexes:   collRepo,
		searchSvc: searchSvc,
		indexSvc:  indexSvc,
		summaries: summaries,
		chunks:    chunks,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(opPing, start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndexes creates the summary and chunk indexes when missing.
func (c *Client) EnsureIndexes(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(opEnsureIndexes, start, err) }()

	if _, err = c.indexes.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

// DropIndexes drops both indexes. Stored entries are kept.
func (c *Client) DropIndexes(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(opDropIndexes, start, err) }()

	if err = c.indexes.DropIndexes(ctx); err != nil {
		return fmt.Errorf("drop indexes: %w", err)
	}
	return nil
}
