package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	indexinguc "github.com/kailas-cloud/neumann/internal/usecase/indexing"
)

type indexOptions struct {
	inputDir string
	outDir   string
	recreate bool
}

func newIndexCmd(root *rootOptions) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk and index source files and their summaries",
		Long: `Chunk every source file under --input-dir into overlapping line
windows and index them. A document's summary at
<out-dir>/<doc_id>/summary.summary.md is embedded and indexed when an
embedding API key is configured; page URIs come from
<out-dir>/<doc_id>/pages/pages.jsonl.

Examples:
  neumann index --input-dir ./docs --out-dir ./out
  neumann index --input-dir ./docs --out-dir ./out --recreate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.inputDir, "input-dir", "", "Directory containing source files")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "Rendered output directory (default assets.dir)")
	cmd.Flags().BoolVar(&opts.recreate, "recreate", false, "Drop and recreate both indexes first")
	_ = cmd.MarkFlagRequired("input-dir")

	return cmd
}

func runIndex(ctx context.Context, out io.Writer, root *rootOptions, opts indexOptions) error {
	a, err := newApp(ctx, root.env)
	if err != nil {
		return err
	}
	defer a.Close()

	outDir := opts.outDir
	if outDir == "" {
		outDir = a.cfg.Assets.Dir
	}

	if opts.recreate {
		if err := a.collections.DropIndexes(ctx); err != nil {
			return fmt.Errorf("drop indexes: %w", err)
		}
		a.logger.Info("Dropped indexes")
	}
	if _, err := a.collections.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	svc, err := a.indexingService()
	if err != nil {
		return err
	}
	if !svc.SummariesEnabled() {
		a.logger.Warn("Summaries skipped: no embedding API key configured")
	}

	start := time.Now()
	report, err := svc.IndexDir(ctx, opts.inputDir, outDir)
	if err != nil {
		return fmt.Errorf("index %s: %w", opts.inputDir, err)
	}
	a.logger.Info("Indexing finished",
		zap.Int("files", report.Files),
		zap.Int("chunks", report.Chunks),
		zap.Int("summaries", report.Summaries),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", time.Since(start)),
	)

	printReport(out, &report)
	return nil
}

func printReport(w io.Writer, r *indexinguc.Report) {
	fmt.Fprintln(w, "Index complete:")
	fmt.Fprintf(w, "  Files: %d\n", r.Files)
	fmt.Fprintf(w, "  Chunks: %d\n", r.Chunks)
	fmt.Fprintf(w, "  Summaries: %d\n", r.Summaries)
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "  Errors: %d\n", len(r.Failed))
		for _, f := range r.Failed {
			fmt.Fprintf(w, "    %s\n", f.Error())
		}
	}
}
