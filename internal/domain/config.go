package domain

// KeyPrefix namespaces every key and index owned by the service.
const KeyPrefix = "neumann:"

// Logical collections in the vector index.
const (
	// SummariesCollection holds one summary per document, with embeddings.
	SummariesCollection = "search_summaries"
	// CodeCollection holds raw line chunks, without embeddings.
	CodeCollection = "search_code"
)

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
	Algorithm      string
	MaxBatchSize   int
}

// DefaultVectorConfig returns the default configuration tuned for text-embedding-3-small.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "text-embedding-3-small",
		Dimensions:     1536,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
		MaxBatchSize:   2048,
	}
}

var expectedDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// ExpectedDimensions returns the known output size for a model name.
func ExpectedDimensions(model string) (int, bool) {
	d, ok := expectedDimensions[model]
	return d, ok
}
