package chi

import (
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/chunk"
	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeNotFound         ErrorCode = "not_found"
	CodeMisconfigured    ErrorCode = "embedding_not_configured"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeUpstreamTimeout  ErrorCode = "upstream_timeout"
	CodeUpstreamError    ErrorCode = "upstream_error"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the JSON body of the POST search endpoints. Absent
// fields take the configured defaults.
type SearchRequest struct {
	Query     *string  `json:"query,omitempty"`
	MustTerms []string `json:"must_terms,omitempty"`
	Regexes   []string `json:"regexes,omitempty"`
	PathLike  *string  `json:"path_like,omitempty"`
	K         *int     `json:"k,omitempty"`
	WSemantic *float64 `json:"w_semantic,omitempty"`
	WLexical  *float64 `json:"w_lexical,omitempty"`
}

// SearchQueryParams are the query-string parameters of GET /search. All
// are optional.
type SearchQueryParams struct {
	Mode      *string
	Query     *string
	MustTerms *[]string
	Regexes   *[]string
	PathLike  *string
	K         *int
	WSemantic *float64
	WLexical  *float64
}

// SearchResultItem is one ranked document.
type SearchResultItem struct {
	DocID      string         `json:"doc_id"`
	SourcePath *string        `json:"source_path"`
	Score      float64        `json:"score"`
	SemScore   float64        `json:"sem_score"`
	LexScore   float64        `json:"lex_score"`
	RRFScore   float64        `json:"rrf_score"`
	PageURIs   []string       `json:"page_uris"`
	LineStart  *int           `json:"line_start"`
	LineEnd    *int           `json:"line_end"`
	Why        []string       `json:"why"`
	Metadata   map[string]any `json:"metadata"`
}

// SearchResponse wraps ranked results.
type SearchResponse struct {
	Mode  string             `json:"mode"`
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

// DocumentInfo describes an indexed document by its summary.
type DocumentInfo struct {
	DocID       string         `json:"doc_id"`
	SourcePath  *string        `json:"source_path"`
	Language    *string        `json:"language"`
	LastUpdated *string        `json:"last_updated"`
	Summary     string         `json:"summary"`
	Metadata    map[string]any `json:"metadata"`
}

// ChunkInfo is one stored line chunk of a document.
type ChunkInfo struct {
	ChunkID    string  `json:"chunk_id"`
	DocID      string  `json:"doc_id"`
	Text       string  `json:"text"`
	SourcePath *string `json:"source_path"`
	LineStart  *int    `json:"line_start"`
	LineEnd    *int    `json:"line_end"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// NewSearchResponse converts ranked results to the wire format, resolving
// page URIs against baseURL.
func NewSearchResponse(m mode.Mode, results []result.Result, baseURL string) SearchResponse {
	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToDTO(&results[i], baseURL)
	}
	return SearchResponse{Mode: string(m), Items: items, Total: len(items)}
}

func searchResultToDTO(r *result.Result, baseURL string) SearchResultItem {
	item := SearchResultItem{
		DocID:      r.DocID(),
		SourcePath: strPtr(r.SourcePath()),
		Score:      r.Score(),
		SemScore:   r.SemScore(),
		LexScore:   r.LexScore(),
		RRFScore:   r.RRFScore(),
		PageURIs:   resolveURIs(baseURL, r.PageURIs()),
		Why:        r.Why(),
		Metadata:   r.Metadata().Map(),
	}
	if start, end, ok := r.Lines(); ok {
		item.LineStart, item.LineEnd = &start, &end
	}
	if item.Why == nil {
		item.Why = []string{}
	}
	return item
}

func documentToDTO(e *domain.Entry, baseURL string) DocumentInfo {
	md := e.Metadata
	md.PageURIs = resolveURIs(baseURL, md.PageURIs)
	return DocumentInfo{
		DocID:       e.DocID(),
		SourcePath:  strPtr(md.SourcePath),
		Language:    strPtr(md.Lang),
		LastUpdated: strPtr(md.LastUpdated),
		Summary:     e.Text,
		Metadata:    md.Map(),
	}
}

func chunkToDTO(e *domain.Entry) ChunkInfo {
	c := ChunkInfo{
		ChunkID:    e.ID,
		DocID:      e.DocID(),
		Text:       e.Text,
		SourcePath: strPtr(e.Metadata.SourcePath),
	}
	if e.Metadata.LineStart > 0 {
		start := e.Metadata.LineStart
		c.LineStart = &start
	}
	if e.Metadata.LineEnd > 0 {
		end := e.Metadata.LineEnd
		c.LineEnd = &end
	}
	return c
}

func resolveURIs(baseURL string, uris []string) []string {
	out := make([]string, len(uris))
	for i, u := range uris {
		out[i] = chunk.ResolveURI(baseURL, u)
	}
	return out
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
