package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/neumann/internal/domain/search/result"
)

const (
	maxWhyLines = 3
	maxPageURIs = 3
)

// printResults writes the human-readable result listing.
func printResults(w io.Writer, results []result.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	for i := range results {
		r := &results[i]
		fmt.Fprintf(w, "%2d. score=%.3f (sem=%.2f lex=%.2f) %s\n",
			i+1, r.Score(), r.SemScore(), r.LexScore(), r.DocID())

		if sp := r.SourcePath(); sp != "" {
			fmt.Fprintf(w, "    %s\n", sp)
		}

		if uris := r.PageURIs(); len(uris) > 0 {
			shown := uris[:min(len(uris), maxPageURIs)]
			line := strings.Join(shown, ", ")
			if more := len(uris) - len(shown); more > 0 {
				line += fmt.Sprintf(" (+%d more)", more)
			}
			fmt.Fprintf(w, "    pages: %s\n", line)
		}

		why := r.Why()
		for _, reason := range why[:min(len(why), maxWhyLines)] {
			fmt.Fprintf(w, "    - %s\n", reason)
		}

		fmt.Fprintln(w)
	}
}
