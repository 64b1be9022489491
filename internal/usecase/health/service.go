package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means lexical search still works but semantic search or an index is unavailable.
	Degraded Status = "degraded"
	// Unhealthy means the vector-index service is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing marks an index that has not been created.
	CheckMissing CheckResult = "missing"
)

// Check names.
const (
	CheckStore     = "store"
	CheckEmbedding = "embedding"
	indexPrefix    = "index:"
)

const defaultTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	indexes   IndexChecker
	names     []string
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. indexes and embedding can be nil.
func New(store StorePinger, indexes IndexChecker, indexNames []string, embedding EmbeddingChecker) *Service {
	return &Service{
		store:     store,
		indexes:   indexes,
		names:     indexNames,
		embedding: embedding,
		timeout:   defaultTimeout,
	}
}

// Check runs all component checks concurrently, each bounded by the service timeout.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult)
	)
	run := func(name string, fn func() CheckResult) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := fn()
			mu.Lock()
			checks[name] = r
			mu.Unlock()
		}()
	}

	run(CheckStore, func() CheckResult { return result(s.store.Ping(ctx)) })
	if s.embedding != nil {
		run(CheckEmbedding, func() CheckResult { return result(s.embedding.HealthCheck(ctx)) })
	}
	if s.indexes != nil {
		for _, name := range s.names {
			run(indexPrefix+name, func() CheckResult {
				ok, err := s.indexes.IndexExists(ctx, name)
				switch {
				case err != nil:
					return CheckError
				case !ok:
					return CheckMissing
				}
				return CheckOK
			})
		}
	}
	wg.Wait()

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}
	if checks[CheckStore] != CheckOK {
		status = Unhealthy
	}
	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
