package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/search/lexical"
	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed semantic query length.
	MaxQueryLength = 4096
	DefaultK       = 12
	MaxK           = 500

	DefaultSemanticWeight = 0.6
	DefaultLexicalWeight  = 0.4
)

// Filters is the lexical filter set as supplied by the caller.
type Filters struct {
	MustTerms []string
	Regexes   []string
	PathLike  string
}

// Active reports whether any lexical filter is set.
func (f Filters) Active() bool {
	return len(f.MustTerms) > 0 || len(f.Regexes) > 0 || f.PathLike != ""
}

// Request is a validated search query.
type Request struct {
	searchMode mode.Mode
	query      string
	filters    Filters
	k          int
	wSemantic  float64
	wLexical   float64
}

// New validates and normalizes search parameters. Blank terms are dropped
// and strings trimmed. Lexical mode requires at least one filter, semantic
// mode requires a query. Hybrid with neither is valid and yields no results.
func New(m mode.Mode, query string, filters Filters, k int, wSemantic, wLexical float64) (Request, error) {
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrValidation, m)
	}

	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	filters = normalize(filters)

	switch m {
	case mode.Lexical:
		if !filters.Active() {
			return Request{}, fmt.Errorf("%w: provide at least one of must_terms, regexes, or path_like",
				domain.ErrValidation)
		}
		query = ""
	case mode.Semantic:
		if query == "" {
			return Request{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
		}
		filters = Filters{}
	}

	if k <= 0 {
		return Request{}, fmt.Errorf("%w: k must be positive", domain.ErrValidation)
	}
	if k > MaxK {
		k = MaxK
	}
	if wSemantic < 0 || wLexical < 0 {
		return Request{}, fmt.Errorf("%w: weights must be non-negative", domain.ErrValidation)
	}
	if wSemantic+wLexical <= 0 {
		return Request{}, fmt.Errorf("%w: weights must not both be zero", domain.ErrValidation)
	}

	return Request{
		searchMode: m,
		query:      query,
		filters:    filters,
		k:          k,
		wSemantic:  wSemantic,
		wLexical:   wLexical,
	}, nil
}

func normalize(f Filters) Filters {
	out := Filters{PathLike: strings.TrimSpace(f.PathLike)}
	for _, t := range f.MustTerms {
		if t = strings.TrimSpace(t); t != "" {
			out.MustTerms = append(out.MustTerms, t)
		}
	}
	for _, r := range f.Regexes {
		if r != "" {
			out.Regexes = append(out.Regexes, r)
		}
	}
	return out
}

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Query returns the semantic query text, "" when the semantic channel is off.
func (r *Request) Query() string { return r.query }

// Filters returns the normalized lexical filters.
func (r *Request) Filters() Filters { return r.filters }

// K returns the result cap.
func (r *Request) K() int { return r.k }

// Weights returns the semantic and lexical channel weights.
func (r *Request) Weights() (semantic, lexical float64) { return r.wSemantic, r.wLexical }

// HasSemantic reports whether the semantic channel is active.
func (r *Request) HasSemantic() bool { return r.searchMode.UsesSemantic() && r.query != "" }

// HasLexical reports whether the lexical channel is active.
func (r *Request) HasLexical() bool { return r.searchMode.UsesLexical() && r.filters.Active() }

// LexicalQuery compiles the lexical filters. Regexes that fail to compile
// are returned in invalid and dropped from the query.
func (r *Request) LexicalQuery() (q lexical.Query, invalid []string) {
	patterns, invalid := lexical.Compile(r.filters.Regexes)
	return lexical.Query{
		Terms:    r.filters.MustTerms,
		Patterns: patterns,
		PathLike: r.filters.PathLike,
	}, invalid
}
