package db

// KNNQuery is the input for vector similarity search.
// Entry scores carry the raw distance reported by the index.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filter       []TagMatch
	Vector       []float32
	K            int
	ReturnFields []string
}

// ListQuery is the input for a paginated non-vector FT.SEARCH.
type ListQuery struct {
	IndexName    string
	Filter       []TagMatch
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Scored reports whether the index returned a
// distance for it; list queries never do.
type SearchEntry struct {
	Key    string
	Score  float64
	Scored bool
	Fields map[string]string
}
