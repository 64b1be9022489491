package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockStore struct {
	err     error
	indexes map[string]bool
	idxErr  error
}

func (m *mockStore) Ping(_ context.Context) error { return m.err }

func (m *mockStore) IndexExists(_ context.Context, name string) (bool, error) {
	if m.idxErr != nil {
		return false, m.idxErr
	}
	return m.indexes[name], nil
}

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

var indexNames = []string{"neumann:search_summaries:idx", "neumann:search_code:idx"}

func allIndexes() map[string]bool {
	return map[string]bool{indexNames[0]: true, indexNames[1]: true}
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	st := &mockStore{indexes: allIndexes()}
	r := New(st, st, indexNames, &mockEmbeddingChecker{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q: %v", Healthy, r.Status, r.Checks)
	}
	if len(r.Checks) != 4 {
		t.Errorf("expected 4 checks, got %v", r.Checks)
	}
	if r.Checks["index:neumann:search_code:idx"] != CheckOK {
		t.Errorf("code index = %q", r.Checks["index:neumann:search_code:idx"])
	}
}

func TestCheck_StoreDown(t *testing.T) {
	st := &mockStore{err: errors.New("conn refused"), idxErr: errors.New("conn refused")}
	r := New(st, st, indexNames, &mockEmbeddingChecker{}).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[CheckStore] != CheckError {
		t.Errorf("store = %q", r.Checks[CheckStore])
	}
	if r.Checks[CheckEmbedding] != CheckOK {
		t.Errorf("embedding = %q", r.Checks[CheckEmbedding])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	st := &mockStore{indexes: allIndexes()}
	r := New(st, st, indexNames, &mockEmbeddingChecker{err: errors.New("timeout")}).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckEmbedding] != CheckError {
		t.Errorf("embedding = %q", r.Checks[CheckEmbedding])
	}
}

func TestCheck_MissingIndex(t *testing.T) {
	st := &mockStore{indexes: map[string]bool{indexNames[0]: true}}
	r := New(st, st, indexNames, nil).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index:"+indexNames[1]] != CheckMissing {
		t.Errorf("code index = %q", r.Checks["index:"+indexNames[1]])
	}
}

func TestCheck_NoEmbedding(t *testing.T) {
	st := &mockStore{}
	r := New(st, nil, nil, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckEmbedding]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
	if len(r.Checks) != 1 {
		t.Errorf("checks = %v", r.Checks)
	}
}

type slowPinger struct{}

func (slowPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(slowPinger{}, nil, nil, nil)
	svc.timeout = 10 * time.Millisecond

	r := svc.Check(context.Background())
	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}
