package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/search/lexical"
	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
	"github.com/kailas-cloud/neumann/internal/domain/search/request"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
	"github.com/kailas-cloud/neumann/internal/domain/search/semantic"
	"github.com/kailas-cloud/neumann/internal/metrics"
)

// Config tunes the search service.
type Config struct {
	// CandidateLimit optionally caps chunks scanned per lexical query.
	// Zero scans the whole collection; a hit cap is logged and counted.
	CandidateLimit int
}

// Service handles search across the lexical, semantic and hybrid modes.
type Service struct {
	chunks    ChunkScanner
	summaries SummaryFinder
	embed     Embedder
	cfg       Config
	logger    *zap.Logger
}

// New creates a search service. embed may be nil when no embedding
// provider is configured; semantic queries then fail with ErrMisconfigured.
func New(chunks ChunkScanner, summaries SummaryFinder, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.CandidateLimit < 0 {
		cfg.CandidateLimit = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{chunks: chunks, summaries: summaries, embed: embed, cfg: cfg, logger: logger}
}

// SemanticEnabled reports whether an embedding provider is configured.
func (s *Service) SemanticEnabled() bool { return s.embed != nil }

// Search executes req and returns at most req.K() results, one per document.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	var (
		results []result.Result
		err     error
	)

	switch req.Mode() {
	case mode.Lexical:
		results, err = s.searchLexical(ctx, req)
		results = truncate(results, req.K())
	case mode.Semantic:
		results, err = s.searchSemantic(ctx, req)
		results = truncate(results, req.K())
	case mode.Hybrid:
		results, err = s.searchHybrid(ctx, req)
	default:
		return nil, fmt.Errorf("%w: unsupported search mode: %s", domain.ErrValidation, req.Mode())
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), status).Inc()
	if err != nil {
		return nil, err
	}
	metrics.SearchResults.WithLabelValues(string(req.Mode())).Observe(float64(len(results)))
	return results, nil
}

// searchLexical scans every chunk, re-scores each page as it arrives and
// keeps the best chunk per document.
func (s *Service) searchLexical(ctx context.Context, req *request.Request) ([]result.Result, error) {
	q, invalid := req.LexicalQuery()
	if len(invalid) > 0 {
		metrics.InvalidRegexTotal.Add(float64(len(invalid)))
		s.logger.Debug("dropping invalid regex filters", zap.Strings("patterns", invalid))
	}
	if !q.Active() {
		return []result.Result{}, nil
	}

	start := time.Now()
	defer func() { metrics.SearchDuration.WithLabelValues("lexical").Observe(time.Since(start).Seconds()) }()

	type scored struct {
		entry domain.Entry
		match lexical.Match
	}
	best := make(map[string]int)
	var matches []scored

	truncated, err := s.chunks.ScanChunks(ctx, s.cfg.CandidateLimit, func(page []domain.Entry) error {
		for i := range page {
			m, ok := q.Evaluate(page[i].Text, page[i].Metadata.SourcePath)
			if !ok {
				continue
			}
			id := page[i].DocID()
			if at, dup := best[id]; dup {
				if lexical.Less(m.Candidate(), matches[at].match.Candidate()) {
					matches[at] = scored{entry: page[i], match: m}
				}
				continue
			}
			best[id] = len(matches)
			matches = append(matches, scored{entry: page[i], match: m})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan chunks: %w", domain.ErrUpstream, err)
	}
	if truncated {
		metrics.LexicalScanTruncatedTotal.Inc()
		s.logger.Warn("lexical scan stopped at candidate limit",
			zap.Int("candidate_limit", s.cfg.CandidateLimit))
	}

	lexical.SortMatches(matches, func(x scored) lexical.Candidate { return x.match.Candidate() })

	out := make([]result.Result, len(matches))
	for i := range matches {
		m := &matches[i]
		out[i] = result.New(m.entry.DocID(), m.match.Score, m.entry.Metadata, m.match.Why())
	}
	return out, nil
}

// searchSemantic embeds the query and runs a nearest-neighbour search over summaries.
func (s *Service) searchSemantic(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if req.Query() == "" {
		return []result.Result{}, nil
	}
	if s.embed == nil {
		return nil, fmt.Errorf("%w: embedding provider is required for semantic search", domain.ErrMisconfigured)
	}

	start := time.Now()
	defer func() { metrics.SearchDuration.WithLabelValues("semantic").Observe(time.Since(start).Seconds()) }()

	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", asUpstream(err))
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	neighbors, err := s.summaries.Nearest(ctx, emb.Embedding, req.K())
	if err != nil {
		return nil, fmt.Errorf("%w: nearest summaries: %w", domain.ErrUpstream, err)
	}

	seen := make(map[string]struct{}, len(neighbors))
	out := make([]result.Result, 0, len(neighbors))
	for i := range neighbors {
		n := &neighbors[i]
		id := n.DocID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		score := semantic.DistanceToScore(n.Distance)
		out = append(out, result.New(id, score, n.Metadata, []string{semantic.Explain(n.Distance, score)}))
	}
	return out, nil
}

// searchHybrid runs both channels concurrently, then fuses them.
func (s *Service) searchHybrid(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if !req.HasSemantic() && !req.HasLexical() {
		return []result.Result{}, nil
	}

	var lexResults, semResults []result.Result
	g, gctx := errgroup.WithContext(ctx)
	if req.HasLexical() {
		g.Go(func() error {
			var err error
			lexResults, err = s.searchLexical(gctx, req)
			return err
		})
	}
	if req.HasSemantic() {
		g.Go(func() error {
			var err error
			semResults, err = s.searchSemantic(gctx, req)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ws, wl := req.Weights()
	return Fuse(lexResults, semResults, req.K(), ws, wl), nil
}

// asUpstream tags unclassified embedding failures as upstream errors.
func asUpstream(err error) error {
	for _, known := range []error{
		domain.ErrMisconfigured, domain.ErrRateLimited, domain.ErrUpstreamTimeout,
		domain.ErrUpstream, domain.ErrValidation, context.Canceled, context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}

func truncate(results []result.Result, k int) []result.Result {
	if len(results) > k {
		return results[:k]
	}
	return results
}
