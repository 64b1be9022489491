package neumann

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/neumann/internal/domain"
)

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil || !strings.Contains(err.Error(), "database address required") {
		t.Fatalf("expected address error, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	emb := &fakeEmbedder{}
	reg := prometheus.NewRegistry()
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithRedis("redis:6379", "pw"),
		WithEmbedder(emb),
		WithVectorDimensions(3),
		WithDistance("l2"),
		WithHNSW(8, 100),
		WithChunking(50, 10),
		WithWorkers(2),
		WithCandidateLimit(100),
		WithLogger(slog.Default()),
		WithPrometheus(reg),
	} {
		o.apply(cfg)
	}

	if cfg.driver != "redis" || cfg.addrs[0] != "redis:6379" || cfg.password != "pw" {
		t.Errorf("connection = %+v", cfg)
	}
	if cfg.embedder != emb || cfg.hnswM != 8 || cfg.linesPerChunk != 50 || cfg.overlap != 10 {
		t.Errorf("config = %+v", cfg)
	}

	vec := vectorConfig(cfg)
	if vec.Dimensions != 3 || vec.DistanceMetric != "l2" || vec.Model != "text-embedding-3-small" {
		t.Errorf("vector config = %+v", vec)
	}

	WithValkey("valkey:6379", "").apply(cfg)
	if cfg.driver != "valkey" {
		t.Errorf("driver = %q", cfg.driver)
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	c := &Client{store: &mockStore{}, obs: obs}

	_ = c.Ping(context.Background())
	c.store = &mockStore{pingErr: errors.New("down")}
	_ = c.Ping(context.Background())
	c.store = &mockStore{pingErr: fmt.Errorf("%w: ping: EOF", domain.ErrUpstream)}
	_ = c.Ping(context.Background())

	for result, want := range map[string]float64{"ok": 1, "error": 1, "upstream": 1} {
		if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues(opPing, result)); got != want {
			t.Errorf("%s count = %v, want %v", result, got, want)
		}
	}

	// A second client on the same registry reuses the collectors.
	obs2, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if obs2.metrics.operations != obs.metrics.operations {
		t.Error("collectors not reused")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("doc x: %w", domain.ErrNotFound), "not_found"},
		{domain.ErrValidation, "invalid"},
		{domain.NewDimensionMismatch("m", 3, 2), "invalid"},
		{fmt.Errorf("%w: 429", domain.ErrRateLimited), "rate_limited"},
		{domain.ErrUpstreamTimeout, "timeout"},
		{fmt.Errorf("%w: FT.SEARCH", domain.ErrUpstream), "upstream"},
		{domain.ErrMisconfigured, "misconfigured"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range tests {
		if got := outcome(tc.err); got != tc.want {
			t.Errorf("outcome(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestEmbedderAdapter(t *testing.T) {
	t.Run("single fallback", func(t *testing.T) {
		a := &embedderAdapter{inner: &fakeEmbedder{}}
		res, err := a.BatchEmbed(context.Background(), []string{"a", "bb"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Embeddings) != 2 || res.Embeddings[1][0] != 2 || res.TotalTokens != 2 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("batch", func(t *testing.T) {
		inner := &fakeBatchEmbedder{}
		a := &embedderAdapter{inner: inner}
		res, err := a.BatchEmbed(context.Background(), []string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inner.calls != 1 || len(res.Embeddings) != 3 {
			t.Errorf("calls=%d result=%+v", inner.calls, res)
		}
	})

	t.Run("error", func(t *testing.T) {
		a := &embedderAdapter{inner: &fakeEmbedder{err: ErrRateLimited}}
		if _, err := a.BatchEmbed(context.Background(), []string{"a"}); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
	})
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	if f.err != nil {
		return EmbeddingResult{}, f.err
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

type fakeBatchEmbedder struct {
	fakeEmbedder
	calls int
}

func (f *fakeBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	f.calls++
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = []float32{1}
	}
	return out, nil
}
