package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
	"github.com/kailas-cloud/neumann/internal/domain/search/request"
	chiTransport "github.com/kailas-cloud/neumann/internal/transport/chi"
)

// exitNoSearchChannel is returned when neither channel can run.
const exitNoSearchChannel = 2

type searchOptions struct {
	must     []string
	regexes  []string
	pathLike string
	k        int
	json     bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a hybrid search",
		Long: `Run a hybrid search. The query drives the semantic channel over
document summaries; --must, --regex and --path-like drive the lexical
channel over line chunks. Without an embedding API key only the lexical
channel runs.

Examples:
  neumann search "how are retries configured"
  neumann search "cache eviction" --must ttl --k 5
  neumann search --regex 'func\s+New' --path-like internal/ --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			return runSearch(cmd.Context(), cmd, root, query, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.must, "must", nil, "Term every matching chunk must contain (repeatable)")
	cmd.Flags().StringArrayVar(&opts.regexes, "regex", nil, "Regular expression a chunk must match (repeatable)")
	cmd.Flags().StringVar(&opts.pathLike, "path-like", "", "case-insensitive substring of the source path")
	cmd.Flags().IntVar(&opts.k, "k", 0, "Number of results (default search.default_k)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, root *rootOptions, query string, opts searchOptions) error {
	a, err := newApp(ctx, root.env)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.searchService()
	filters := request.Filters{MustTerms: opts.must, Regexes: opts.regexes, PathLike: opts.pathLike}

	m := mode.Hybrid
	if !svc.SemanticEnabled() || query == "" {
		if !filters.Active() {
			return &ExitError{
				Code: exitNoSearchChannel,
				Msg: "Semantic search requires an embedding API key and a query. " +
					"Provide lexical filters (--must/--regex/--path-like) or set the key.",
			}
		}
		m, query = mode.Lexical, ""
	}

	k := opts.k
	if k == 0 {
		k = a.cfg.Search.DefaultK
	}
	req, err := request.New(m, query, filters, k, a.cfg.Search.SemanticWeight, a.cfg.Search.LexicalWeight)
	if err != nil {
		return fmt.Errorf("build search request: %w", err)
	}

	results, err := svc.Search(ctx, &req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(chiTransport.NewSearchResponse(m, results, a.cfg.Assets.BaseURL).Items); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		return nil
	}

	printResults(out, results)
	return nil
}
