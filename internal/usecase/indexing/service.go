// Package indexing turns source files and their summaries into chunk and
// summary entries of the vector index.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/chunk"
	"github.com/kailas-cloud/neumann/internal/domain/meta"
	"github.com/kailas-cloud/neumann/internal/domain/summary"
	"github.com/kailas-cloud/neumann/internal/metrics"
)

// Layout of the render output directory, per document id.
const (
	pagesDir    = "pages"
	summaryName = "summary" + summary.FileSuffix
)

// Config tunes chunking and directory concurrency.
type Config struct {
	LinesPerChunk int
	Overlap       int
	// Workers bounds concurrent files in IndexDir. Zero picks half the CPUs.
	Workers int
	// ValidateSummaries enforces the summary word bounds before indexing.
	ValidateSummaries bool
}

// FileResult describes one indexed source file.
type FileResult struct {
	DocID    string
	Chunks   int
	Replaced int
	Summary  bool
}

// FileError records a source file that could not be indexed.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e FileError) Unwrap() error { return e.Err }

// Report aggregates a directory run.
type Report struct {
	Files     int
	Chunks    int
	Summaries int
	Failed    []FileError
}

// Service indexes chunks and, when an embedder is configured, summaries.
type Service struct {
	chunks    ChunkStore
	summaries SummaryStore
	embedder  Embedder
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an indexing service. summaries and embedder may be nil, in
// which case summary files are skipped.
func New(chunks ChunkStore, summaries SummaryStore, embedder Embedder, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.LinesPerChunk == 0 {
		cfg.LinesPerChunk = chunk.DefaultLinesPerChunk
	}
	if err := chunk.ValidateParams(cfg.LinesPerChunk, cfg.Overlap); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = max(1, runtime.NumCPU()/2)
	}
	return &Service{
		chunks:    chunks,
		summaries: summaries,
		embedder:  embedder,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// SummariesEnabled reports whether summary files are indexed.
func (s *Service) SummariesEnabled() bool {
	return s.summaries != nil && s.embedder != nil
}

// IndexFile chunks src and replaces the document's chunks in the index.
// Page URIs come from {outDir}/{doc_id}/pages/pages.jsonl and a summary at
// {outDir}/{doc_id}/summary.summary.md is indexed when present.
func (s *Service) IndexFile(ctx context.Context, src, inputDir, outDir string) (FileResult, error) {
	docID, err := domain.MakeDocID(src, inputDir)
	if err != nil {
		return FileResult{}, err
	}
	res := FileResult{DocID: docID}

	raw, err := os.ReadFile(src)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", src, err)
	}

	var pageURIs []string
	if outDir != "" {
		pageURIs = chunk.LoadPageURIs(filepath.Join(outDir, docID, pagesDir, chunk.ManifestName))
	}

	chunks, err := chunk.Split(strings.ToValidUTF8(string(raw), ""), pageURIs, s.cfg.LinesPerChunk, s.cfg.Overlap)
	if err != nil {
		return res, fmt.Errorf("chunk %s: %w", src, err)
	}
	entries := chunkEntries(docID, sourcePath(src, inputDir), DetectLanguage(src), chunks)

	res.Replaced, err = s.chunks.DeleteDoc(ctx, docID)
	if err != nil {
		return res, fmt.Errorf("replace chunks of %s: %w", docID, err)
	}
	if err := s.chunks.Upsert(ctx, entries); err != nil {
		return res, fmt.Errorf("upsert chunks of %s: %w", docID, err)
	}
	res.Chunks = len(entries)
	metrics.IndexedItemsTotal.WithLabelValues(domain.CodeCollection).Add(float64(len(entries)))

	if outDir != "" && s.SummariesEnabled() {
		path := filepath.Join(outDir, docID, summaryName)
		if _, statErr := os.Stat(path); statErr == nil {
			if err := s.IndexSummary(ctx, path, docID, pageURIs); err != nil {
				return res, err
			}
			res.Summary = true
		}
	}

	s.logger.Debug("Indexed file",
		zap.String("doc_id", docID),
		zap.Int("chunks", res.Chunks),
		zap.Int("replaced", res.Replaced),
		zap.Bool("summary", res.Summary),
	)
	return res, nil
}

// IndexSummary parses a summary file, embeds its body and upserts it under docID.
func (s *Service) IndexSummary(ctx context.Context, path, docID string, pageURIs []string) error {
	if !s.SummariesEnabled() {
		return fmt.Errorf("%w: summary indexing needs an embedder", domain.ErrMisconfigured)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read summary %s: %w", path, err)
	}
	sum, err := summary.Parse(data)
	if err != nil {
		return fmt.Errorf("parse summary %s: %w", path, err)
	}
	if s.cfg.ValidateSummaries {
		if err := sum.Validate(); err != nil {
			return fmt.Errorf("summary %s: %w", path, err)
		}
	}
	if sum.Body() == "" {
		return fmt.Errorf("%w: summary %s has an empty body", domain.ErrValidation, path)
	}

	rec, err := sum.Record(docID, pageURIs, s.now())
	if err != nil {
		return fmt.Errorf("summary %s: %w", path, err)
	}

	emb, err := s.embedder.BatchEmbed(ctx, []string{sum.Body()})
	if err != nil {
		return fmt.Errorf("embed summary %s: %w", docID, err)
	}
	if len(emb.Embeddings) != 1 {
		return fmt.Errorf("%w: expected 1 summary embedding, got %d", domain.ErrUpstream, len(emb.Embeddings))
	}

	entry := domain.Entry{ID: rec.DocID, Text: sum.Body(), Metadata: rec, Vector: emb.Embeddings[0]}
	if err := s.summaries.Upsert(ctx, []domain.Entry{entry}); err != nil {
		return fmt.Errorf("upsert summary %s: %w", docID, err)
	}
	metrics.IndexedItemsTotal.WithLabelValues(domain.SummariesCollection).Inc()
	return nil
}

// IndexDir indexes every regular file under inputDir on a bounded worker
// pool. Hidden entries, summary files and outDir itself are skipped. Files
// that fail are reported in Report.Failed; the returned error is reserved
// for walk failures and cancellation.
func (s *Service) IndexDir(ctx context.Context, inputDir, outDir string) (Report, error) {
	sources, err := collectSources(inputDir, outDir)
	if err != nil {
		return Report{}, err
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return Report{}, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	var (
		rep Report
		mu  sync.Mutex
		wg  sync.WaitGroup
	)
	record := func(src string, res FileResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			rep.Failed = append(rep.Failed, FileError{Path: src, Err: err})
			s.logger.Warn("Indexing file failed", zap.String("path", src), zap.Error(err))
			return
		}
		rep.Files++
		rep.Chunks += res.Chunks
		if res.Summary {
			rep.Summaries++
		}
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			res, err := s.IndexFile(ctx, src, inputDir, outDir)
			record(src, res, err)
		})
		if submitErr != nil {
			wg.Done()
			record(src, FileResult{}, fmt.Errorf("submit: %w", submitErr))
		}
	}
	wg.Wait()

	sort.Slice(rep.Failed, func(i, j int) bool { return rep.Failed[i].Path < rep.Failed[j].Path })

	s.logger.Info("Indexing finished",
		zap.String("input_dir", inputDir),
		zap.Int("sources", len(sources)),
		zap.Int("files", rep.Files),
		zap.Int("chunks", rep.Chunks),
		zap.Int("summaries", rep.Summaries),
		zap.Int("failed", len(rep.Failed)),
	)
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("index %s: %w", inputDir, err)
	}
	return rep, nil
}

func collectSources(inputDir, outDir string) ([]string, error) {
	skip := ""
	if outDir != "" {
		if abs, err := filepath.Abs(outDir); err == nil {
			skip = abs
		}
	}

	var sources []string
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != inputDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if abs, absErr := filepath.Abs(path); absErr == nil && abs == skip && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasSuffix(d.Name(), summary.FileSuffix) || d.Name() == chunk.ManifestName {
			return nil
		}
		sources = append(sources, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: input dir %s does not exist", domain.ErrValidation, inputDir)
		}
		return nil, fmt.Errorf("walk %s: %w", inputDir, err)
	}
	sort.Strings(sources)
	return sources, nil
}

// chunkEntries builds chunk entries. Byte segments of one oversized line
// share a line range; the second and later get a "~n" id suffix.
func chunkEntries(docID, srcPath, lang string, chunks []chunk.Chunk) []domain.Entry {
	entries := make([]domain.Entry, 0, len(chunks))
	seen := make(map[string]int, len(chunks))
	for _, c := range chunks {
		id := domain.ChunkID(docID, c.LineStart, c.LineEnd)
		seen[id]++
		if n := seen[id]; n >= 2 {
			id = fmt.Sprintf("%s~%d", id, n)
		}
		pages := c.PageURIs
		if pages == nil {
			pages = []string{}
		}
		entries = append(entries, domain.Entry{
			ID:   id,
			Text: c.Text,
			Metadata: meta.Record{
				DocID:      docID,
				SourcePath: srcPath,
				Lang:       lang,
				LineStart:  c.LineStart,
				LineEnd:    c.LineEnd,
				PageURIs:   pages,
			},
		})
	}
	return entries
}

func sourcePath(src, inputDir string) string {
	if inputDir != "" {
		if rel, err := filepath.Rel(inputDir, src); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(src)
}
