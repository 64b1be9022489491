package neumann

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
	"github.com/kailas-cloud/neumann/internal/domain/search/request"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
)

// SearchMode controls which channels run.
type SearchMode string

// Search mode constants.
const (
	ModeHybrid   SearchMode = "hybrid"
	ModeSemantic SearchMode = "semantic"
	ModeLexical  SearchMode = "lexical"
)

// SearchQuery describes a search. Zero K and zero weights take the defaults
// (12 results, 0.6 semantic, 0.4 lexical); an empty Mode means hybrid.
type SearchQuery struct {
	Mode      SearchMode
	Query     string
	MustTerms []string
	Regexes   []string
	PathLike  string // case-insensitive substring of the source path
	K         int
	WSemantic float64
	WLexical  float64
}

// Hit is one ranked document.
type Hit struct {
	DocID      string
	SourcePath string
	Score      float64
	SemScore   float64
	LexScore   float64
	RRFScore   float64
	PageURIs   []string
	LineStart  int // 0 when unknown
	LineEnd    int
	Why        []string
	Metadata   map[string]any
}

// Search runs a query and returns at most K hits ordered by descending score.
func (c *Client) Search(ctx context.Context, q SearchQuery) (hits []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSearch, start, err) }()

	k := q.K
	if k == 0 {
		k = request.DefaultK
	}
	ws, wl := q.WSemantic, q.WLexical
	if ws == 0 && wl == 0 {
		ws, wl = request.DefaultSemanticWeight, request.DefaultLexicalWeight
	}

	req, err := request.New(mode.Mode(q.Mode), q.Query, request.Filters{
		MustTerms: q.MustTerms,
		Regexes:   q.Regexes,
		PathLike:  q.PathLike,
	}, k, ws, wl)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits = make([]Hit, len(results))
	for i := range results {
		hits[i] = toHit(&results[i])
	}
	return hits, nil
}

func toHit(r *result.Result) Hit {
	h := Hit{
		DocID:      r.DocID(),
		SourcePath: r.SourcePath(),
		Score:      r.Score(),
		SemScore:   r.SemScore(),
		LexScore:   r.LexScore(),
		RRFScore:   r.RRFScore(),
		PageURIs:   r.PageURIs(),
		Why:        r.Why(),
		Metadata:   r.Metadata().Map(),
	}
	if start, end, ok := r.Lines(); ok {
		h.LineStart, h.LineEnd = start, end
	}
	return h
}
