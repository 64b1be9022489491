package neumann

import (
	"context"
	"fmt"
	"time"
)

// IndexReport summarizes a directory run.
type IndexReport struct {
	Files     int
	Chunks    int
	Summaries int
	Failed    map[string]error // source path → cause
}

// IndexDir chunks and indexes every source file under inputDir. Summaries
// and page manifests are read from outDir/<doc_id>/. Per-file failures are
// collected in the report; the returned error is for failures of the run itself.
func (c *Client) IndexDir(ctx context.Context, inputDir, outDir string) (rep IndexReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opIndexDir, start, err) }()

	r, err := c.indexSvc.IndexDir(ctx, inputDir, outDir)
	if err != nil {
		return IndexReport{}, fmt.Errorf("index dir: %w", err)
	}

	rep = IndexReport{Files: r.Files, Chunks: r.Chunks, Summaries: r.Summaries}
	if len(r.Failed) > 0 {
		rep.Failed = make(map[string]error, len(r.Failed))
		for _, f := range r.Failed {
			rep.Failed[f.Path] = f.Err
		}
	}
	return rep, nil
}

// IndexFile indexes a single source file, replacing its previous chunks.
// It returns the document id and the number of chunks written.
func (c *Client) IndexFile(ctx context.Context, src, inputDir, outDir string) (docID string, chunks int, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opIndexFile, start, err) }()

	r, err := c.indexSvc.IndexFile(ctx, src, inputDir, outDir)
	if err != nil {
		return "", 0, fmt.Errorf("index file: %w", err)
	}
	return r.DocID, r.Chunks, nil
}
