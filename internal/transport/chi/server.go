package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/chunk"
	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
	"github.com/kailas-cloud/neumann/internal/domain/search/request"
	"github.com/kailas-cloud/neumann/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/neumann/internal/usecase/health"
	"github.com/kailas-cloud/neumann/internal/version"
)

// maxChunksPerDoc bounds GET /docs/{doc_id}/chunks.
const maxChunksPerDoc = 500

const maxBodyBytes = 1 << 20

// Searcher runs validated search requests.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// SummaryReader reads a document's stored summary.
type SummaryReader interface {
	Get(ctx context.Context, id string) (domain.Entry, error)
}

// ChunkReader lists a document's stored chunks.
type ChunkReader interface {
	ByDoc(ctx context.Context, docID string, limit int) ([]domain.Entry, error)
}

// SearchDefaults fill absent request fields.
type SearchDefaults struct {
	K         int
	WSemantic float64
	WLexical  float64
}

// Assets locates rendered page images.
type Assets struct {
	BaseURL string
	Dir     string
	Root    string
}

// Server holds the HTTP handlers.
type Server struct {
	search    Searcher
	health    HealthChecker
	summaries SummaryReader
	chunks    ChunkReader
	defaults  SearchDefaults
	assets    Assets
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	health HealthChecker,
	summaries SummaryReader,
	chunks ChunkReader,
	defaults SearchDefaults,
	assets Assets,
) *Server {
	if defaults.K <= 0 {
		defaults.K = request.DefaultK
	}
	if defaults.WSemantic == 0 && defaults.WLexical == 0 {
		defaults.WSemantic, defaults.WLexical = request.DefaultSemanticWeight, request.DefaultLexicalWeight
	}
	return &Server{
		search:    search,
		health:    health,
		summaries: summaries,
		chunks:    chunks,
		defaults:  defaults,
		assets:    assets,
	}
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/search", func(r chi.Router) {
		r.Get("/", s.SearchQuery)
		r.Post("/lexical", s.searchHandler(mode.Lexical))
		r.Post("/semantic", s.searchHandler(mode.Semantic))
		r.Post("/hybrid", s.searchHandler(mode.Hybrid))
	})

	r.Route("/docs/{docID}", func(r chi.Router) {
		r.Get("/", s.GetDocument)
		r.Get("/chunks", s.GetDocumentChunks)
		r.Get("/pages", s.GetDocumentPages)
	})

	if s.assets.Dir != "" && s.assets.Root != "" {
		prefix := "/" + s.assets.Root + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(s.assets.Dir))))
	}
}

// AssetPrefix returns the URL prefix serving page images, "" when disabled.
func (s *Server) AssetPrefix() string {
	if s.assets.Dir == "" || s.assets.Root == "" {
		return ""
	}
	return "/" + s.assets.Root + "/"
}

// searchHandler handles POST /search/{mode}.
func (s *Server) searchHandler(m mode.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body SearchRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return
		}

		req, err := s.buildRequest(m, body.Query, request.Filters{
			MustTerms: body.MustTerms,
			Regexes:   body.Regexes,
			PathLike:  deref(body.PathLike),
		}, body.K, body.WSemantic, body.WLexical)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		s.runSearch(w, r, &req)
	}
}

// SearchQuery handles GET /search with query-string parameters.
// Repeated must and regex parameters accumulate.
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	m := mode.Hybrid
	if params.Mode != nil {
		m = mode.Mode(strings.ToLower(*params.Mode))
	}
	req, err := s.buildRequest(m, params.Query, request.Filters{
		MustTerms: deref(params.MustTerms),
		Regexes:   deref(params.Regexes),
		PathLike:  deref(params.PathLike),
	}, params.K, params.WSemantic, params.WLexical)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	s.runSearch(w, r, &req)
}

func bindSearchQuery(r *http.Request) (SearchQueryParams, error) {
	var p SearchQueryParams
	q := r.URL.Query()
	binds := []struct {
		name string
		dest any
	}{
		{"mode", &p.Mode},
		{"q", &p.Query},
		{"must", &p.MustTerms},
		{"regex", &p.Regexes},
		{"path_like", &p.PathLike},
		{"k", &p.K},
		{"w_semantic", &p.WSemantic},
		{"w_lexical", &p.WLexical},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return SearchQueryParams{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	return p, nil
}

func (s *Server) buildRequest(
	m mode.Mode, query *string, filters request.Filters, k *int, wSem, wLex *float64,
) (request.Request, error) {
	kk := s.defaults.K
	if k != nil {
		kk = *k
	}
	ws, wl := s.defaults.WSemantic, s.defaults.WLexical
	if wSem != nil {
		ws = *wSem
	}
	if wLex != nil {
		wl = *wLex
	}
	req, err := request.New(m, deref(query), filters, kk, ws, wl)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return req, nil
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req *request.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.Search(ctx, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, NewSearchResponse(req.Mode(), results, s.assets.BaseURL))
}

// GetDocument handles GET /docs/{doc_id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	docID, ok := docIDParam(w, r)
	if !ok {
		return
	}
	e, err := s.summaries.Get(r.Context(), docID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&e, s.assets.BaseURL))
}

// GetDocumentChunks handles GET /docs/{doc_id}/chunks.
func (s *Server) GetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	docID, ok := docIDParam(w, r)
	if !ok {
		return
	}
	entries, err := s.chunks.ByDoc(r.Context(), docID, maxChunksPerDoc)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]ChunkInfo, len(entries))
	for i := range entries {
		items[i] = chunkToDTO(&entries[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// GetDocumentPages handles GET /docs/{doc_id}/pages from the render manifest.
func (s *Server) GetDocumentPages(w http.ResponseWriter, r *http.Request) {
	docID, ok := docIDParam(w, r)
	if !ok {
		return
	}
	if s.assets.Dir == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "page assets are not configured")
		return
	}

	pages, err := chunk.LoadPages(filepath.Join(s.assets.Dir, docID, "pages", chunk.ManifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, CodeNotFound, "pages manifest not found for document: "+docID)
			return
		}
		handleDomainError(w, r, err)
		return
	}
	for i := range pages {
		if pages[i].DocID == "" {
			pages[i].DocID = docID
		}
		pages[i].URI = chunk.ResolveURI(s.assets.BaseURL, pages[i].URI)
	}
	if pages == nil {
		pages = []chunk.Page{}
	}
	writeJSON(w, http.StatusOK, pages)
}

// docIDParam extracts the doc id, rejecting values that could escape the asset dir.
func docIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	docID := chi.URLParam(r, "docID")
	if docID == "" || docID == "." || strings.Contains(docID, "..") || strings.ContainsAny(docID, `/\`) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid doc_id")
		return "", false
	}
	return docID, true
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
