// Package neumann embeds the neumann search engine in a Go program: it
// indexes source files as line chunks plus their markdown summaries into
// Valkey or Redis with the search module, then runs lexical, semantic or
// hybrid queries over them.
//
//	client, _ := neumann.New(ctx,
//	    neumann.WithValkey("localhost:6379", ""),
//	    neumann.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//	_ = client.EnsureIndexes(ctx)
//	report, _ := client.IndexDir(ctx, "./docs", "./out")
//	hits, _ := client.Search(ctx, neumann.SearchQuery{
//	    Query:     "how are retries configured",
//	    MustTerms: []string{"retry"},
//	})
//
// Without an embedder only lexical search and chunk indexing are available.
package neumann
