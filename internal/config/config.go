package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the neumann configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Search    SearchConfig    `yaml:"search"`
	Index     IndexConfig     `yaml:"index"`
	Assets    AssetsConfig    `yaml:"assets"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector-index service connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider, retry and cache settings.
type EmbeddingConfig struct {
	Providers    map[string]ProviderConfig `yaml:"providers"`
	Vectorizer   VectorizerConfig          `yaml:"vectorizer"`
	Retry        RetryConfig               `yaml:"retry"`
	Cache        CacheConfig               `yaml:"cache"`
	MaxBatchSize int                       `yaml:"max_batch_size"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// VectorizerConfig selects the provider and model used for summaries and queries.
type VectorizerConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// RetryConfig bounds retries of rate-limited or timed-out embedding calls.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMs int     `yaml:"base_delay_ms"`
	Jitter      float64 `yaml:"jitter"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	MemorySize int `yaml:"memory_size"`
	TTLSec     int `yaml:"ttl_sec"` // 0 = no expiry
}

// ChunkingConfig holds line-window settings.
type ChunkingConfig struct {
	LinesPerChunk int `yaml:"lines_per_chunk"`
	Overlap       int `yaml:"overlap"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultK       int     `yaml:"default_k"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	LexicalWeight  float64 `yaml:"lexical_weight"`
	CandidateLimit int     `yaml:"candidate_limit"`
}

// IndexConfig holds HNSW and indexing settings.
type IndexConfig struct {
	Algorithm         string `yaml:"algorithm"` // hnsw, flat
	Distance          string `yaml:"distance"`  // cosine, l2, ip
	HNSWM             int    `yaml:"hnsw_m"`
	HNSWEFConstruct   int    `yaml:"hnsw_ef_construction"`
	Workers           int    `yaml:"workers"`
	ValidateSummaries bool   `yaml:"validate_summaries"`
}

// AssetsConfig describes where rendered page images are served from.
type AssetsConfig struct {
	BaseURL string `yaml:"base_url"`
	Dir     string `yaml:"dir"`  // rendered output directory served by `serve`
	Root    string `yaml:"root"` // URL path segment the page URIs start with
}

// RetryDelay returns the base retry delay.
func (c RetryConfig) RetryDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// Provider returns the configured vectorizer provider settings.
func (c *EmbeddingConfig) Provider() (ProviderConfig, bool) {
	p, ok := c.Providers[c.Vectorizer.Provider]
	return p, ok
}

// HasAPIKey reports whether the vectorizer provider has credentials.
func (c *EmbeddingConfig) HasAPIKey() bool {
	p, ok := c.Provider()
	return ok && p.APIKey != ""
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} and ${VAR:-default}
// references, then applies defaults and validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.applyEmbeddingDefaults()

	if c.Chunking.LinesPerChunk <= 0 {
		c.Chunking.LinesPerChunk = 180
		if c.Chunking.Overlap == 0 {
			c.Chunking.Overlap = 30
		}
	}
	if c.Search.DefaultK <= 0 {
		c.Search.DefaultK = 12
	}
	if c.Search.SemanticWeight == 0 && c.Search.LexicalWeight == 0 {
		c.Search.SemanticWeight = 0.6
		c.Search.LexicalWeight = 0.4
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "hnsw"
	}
	if c.Index.Distance == "" {
		c.Index.Distance = "cosine"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Assets.BaseURL == "" {
		c.Assets.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", c.HTTP.Port)
	}
	if c.Assets.Root == "" {
		c.Assets.Root = "out"
	}

	keys := c.Auth.APIKeys[:0]
	for _, k := range c.Auth.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.Auth.APIKeys = keys
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Vectorizer.Provider == "" {
		e.Vectorizer.Provider = "openai"
	}
	if e.Vectorizer.Model == "" {
		e.Vectorizer.Model = "text-embedding-3-small"
	}
	if e.Retry.MaxAttempts <= 0 {
		e.Retry.MaxAttempts = 3
	}
	if e.Retry.BaseDelayMs <= 0 {
		e.Retry.BaseDelayMs = 1000
	}
	if e.Retry.Jitter == 0 {
		e.Retry.Jitter = 0.1
	}
	if e.Cache.MemorySize <= 0 {
		e.Cache.MemorySize = 1024
	}
	if e.MaxBatchSize <= 0 {
		e.MaxBatchSize = 2048
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.LinesPerChunk {
		return fmt.Errorf("chunking.overlap must be in [0, %d), got %d",
			c.Chunking.LinesPerChunk, c.Chunking.Overlap)
	}
	if c.Search.SemanticWeight < 0 || c.Search.LexicalWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.Search.CandidateLimit < 0 {
		return fmt.Errorf("search.candidate_limit must be non-negative, got %d", c.Search.CandidateLimit)
	}
	if c.Embedding.Retry.Jitter < 0 || c.Embedding.Retry.Jitter > 1 {
		return fmt.Errorf("embedding.retry.jitter must be in [0, 1], got %g", c.Embedding.Retry.Jitter)
	}
	if c.Embedding.MaxBatchSize > 2048 {
		return fmt.Errorf("embedding.max_batch_size must not exceed 2048, got %d", c.Embedding.MaxBatchSize)
	}
	for name, p := range c.Embedding.Providers {
		if p.RequestsPerSecond < 0 {
			return fmt.Errorf("embedding.providers.%s.requests_per_second must be non-negative", name)
		}
	}
	if len(c.Embedding.Providers) > 0 {
		if _, ok := c.Embedding.Provider(); !ok {
			return fmt.Errorf("embedding.vectorizer.provider %q is not configured", c.Embedding.Vectorizer.Provider)
		}
	}
	switch c.Index.Algorithm {
	case "hnsw", "flat":
	default:
		return fmt.Errorf("index.algorithm must be \"hnsw\" or \"flat\", got %q", c.Index.Algorithm)
	}
	if u, err := url.Parse(c.Assets.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("assets.base_url must be an absolute URL, got %q", c.Assets.BaseURL)
	}
	if strings.Contains(c.Assets.Root, "/") {
		return fmt.Errorf("assets.root must be a single path segment, got %q", c.Assets.Root)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
