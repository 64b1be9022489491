package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/neumann/internal/config"
	dbRedis "github.com/kailas-cloud/neumann/internal/db/redis"
	"github.com/kailas-cloud/neumann/internal/domain"
	logpkg "github.com/kailas-cloud/neumann/internal/logger"
	"github.com/kailas-cloud/neumann/internal/metrics"
	"github.com/kailas-cloud/neumann/internal/repository/chunks"
	"github.com/kailas-cloud/neumann/internal/repository/collection"
	"github.com/kailas-cloud/neumann/internal/repository/embcache"
	"github.com/kailas-cloud/neumann/internal/repository/summaries"
	openaiEmb "github.com/kailas-cloud/neumann/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/neumann/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/neumann/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/neumann/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/neumann/internal/usecase/search"
)

// app is the composition root shared by all commands.
type app struct {
	cfg         config.Config
	env         string
	logger      *zap.Logger
	store       *dbRedis.Store
	collections *collection.Repo
	chunks      *chunks.Repo
	summaries   *summaries.Repo
	// embedder is nil without an API key; semantic search and summary
	// indexing are then disabled.
	embedder *embeddinguc.InstrumentedEmbedder
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("vector index not ready: %w", err)
	}
	logger.Debug("Connected to vector index",
		zap.String("driver", cfg.Database.Driver),
		zap.Strings("addrs", cfg.Database.Addrs),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	vec := vectorConfig(&cfg)
	a := &app{
		cfg:    cfg,
		env:    env,
		logger: logger,
		store:  store,
		collections: collection.New(store, vec).WithHNSW(collection.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		}),
		chunks:    chunks.New(store),
		summaries: summaries.New(store, vec),
	}

	if cfg.Embedding.HasAPIKey() {
		a.embedder, err = buildEmbedder(&cfg, store, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
	} else {
		logger.Warn("No embedding API key configured; semantic search is disabled")
	}
	return a, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func vectorConfig(cfg *config.Config) domain.VectorConfig {
	vec := domain.DefaultVectorConfig()
	if v := cfg.Embedding.Vectorizer; v.Model != "" {
		vec.Model = v.Model
	}
	if d := cfg.Embedding.Vectorizer.Dimensions; d > 0 {
		vec.Dimensions = d
	}
	if cfg.Index.Distance != "" {
		vec.DistanceMetric = cfg.Index.Distance
	}
	if cfg.Index.Algorithm != "" {
		vec.Algorithm = cfg.Index.Algorithm
	}
	if cfg.Embedding.MaxBatchSize > 0 {
		vec.MaxBatchSize = cfg.Embedding.MaxBatchSize
	}
	return vec
}

// buildEmbedder assembles the decorator chain:
// OpenAI (rate limited) -> Retrying -> Cached -> Instrumented (batch splitting).
func buildEmbedder(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) (*embeddinguc.InstrumentedEmbedder, error) {
	provName := cfg.Embedding.Vectorizer.Provider
	provCfg, _ := cfg.Embedding.Provider()
	vec := vectorConfig(cfg)

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:            provCfg.APIKey,
		BaseURL:           provCfg.BaseURL,
		Model:             vec.Model,
		Dimensions:        vec.Dimensions,
		Provider:          provName,
		RequestsPerSecond: provCfg.RequestsPerSecond,
		Timeout:           time.Duration(provCfg.TimeoutSec) * time.Second,
		Logger:            logger,
	})

	retry := cfg.Embedding.Retry
	retrying := embeddinguc.NewRetryingEmbedder(base, embeddinguc.RetryPolicy{
		MaxAttempts: retry.MaxAttempts,
		BaseDelay:   retry.RetryDelay(),
		Jitter:      retry.Jitter,
		Retryable:   domain.IsRetryable,
	}, logger)

	cached, err := embcache.New(retrying, store, embcache.Config{
		Model:      vec.Model,
		MemorySize: cfg.Embedding.Cache.MemorySize,
		TTL:        time.Duration(cfg.Embedding.Cache.TTLSec) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	logger.Debug("Embedder created",
		zap.String("provider", provName),
		zap.String("model", vec.Model),
		zap.Int("dimensions", vec.Dimensions),
	)
	return embeddinguc.NewInstrumentedEmbedder(cached, provName, vec.Model, vec.MaxBatchSize, logger), nil
}

func (a *app) searchService() *searchuc.Service {
	var embed searchuc.Embedder
	if a.embedder != nil {
		embed = a.embedder
	}
	return searchuc.New(a.chunks, a.summaries, embed, searchuc.Config{
		CandidateLimit: a.cfg.Search.CandidateLimit,
	}, a.logger)
}

func (a *app) indexingService() (*indexinguc.Service, error) {
	var embed indexinguc.Embedder
	if a.embedder != nil {
		embed = a.embedder
	}
	svc, err := indexinguc.New(a.chunks, a.summaries, embed, indexinguc.Config{
		LinesPerChunk:     a.cfg.Chunking.LinesPerChunk,
		Overlap:           a.cfg.Chunking.Overlap,
		Workers:           a.cfg.Index.Workers,
		ValidateSummaries: a.cfg.Index.ValidateSummaries,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create indexing service: %w", err)
	}
	return svc, nil
}

func (a *app) healthService() *healthuc.Service {
	var emb healthuc.EmbeddingChecker
	if a.embedder != nil {
		emb = a.embedder
	}
	return healthuc.New(a.store, a.store, []string{
		collection.IndexName(domain.SummariesCollection),
		collection.IndexName(domain.CodeCollection),
	}, emb)
}
