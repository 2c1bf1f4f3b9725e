package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return nil
}

func (m *memoryStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func result(paths ...string) *executor.SearchResult {
	r := &executor.SearchResult{Results: []ranker.ScoredDoc{}}
	for _, p := range paths {
		r.Results = append(r.Results, ranker.ScoredDoc{Path: p, Score: 1})
	}
	r.TotalHits = len(paths)
	return r
}

func TestGetOrComputeCaches(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New(newMemoryStore(), time.Minute, m)
	ctx := context.Background()
	tokens := []string{"cat", "AND", "dog"}
	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return result("a.txt"), nil
	}

	if _, hit, err := c.GetOrCompute(ctx, tokens, 10, compute); err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	got, hit, err := c.GetOrCompute(ctx, tokens, 10, compute)
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if calls != 1 {
		t.Errorf("compute calls = %d, want 1", calls)
	}
	if len(got.Results) != 1 || got.Results[0].Path != "a.txt" {
		t.Errorf("cached result = %+v", got)
	}
	if _, hit, _ := c.GetOrCompute(ctx, tokens, 5, compute); hit {
		t.Error("different limit must not share an entry")
	}
	if hits, _ := c.Stats(); hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("hit metric = %v, want 1", got)
	}
}

func TestKeyIsOrderAndCaseSensitive(t *testing.T) {
	c := New(newMemoryStore(), time.Minute, nil)
	keys := map[string]bool{
		c.buildKey(0, []string{"a", "ANDNOT", "b"}, 10): true,
		c.buildKey(0, []string{"b", "ANDNOT", "a"}, 10): true,
		c.buildKey(0, []string{"A", "ANDNOT", "b"}, 10): true,
		c.buildKey(0, []string{"a", "ANDNOT", "b"}, 20): true,
		c.buildKey(1, []string{"a", "ANDNOT", "b"}, 10): true,
	}
	if len(keys) != 5 {
		t.Errorf("expected 5 distinct keys, got %d", len(keys))
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New(newMemoryStore(), time.Minute, nil)
	ctx := context.Background()
	syntax := errors.New("Missing ) bracket")
	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return nil, syntax
	}
	for i := 0; i < 2; i++ {
		if _, _, err := c.GetOrCompute(ctx, []string{"(", "a"}, 10, compute); !errors.Is(err, syntax) {
			t.Fatalf("err = %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("compute calls = %d, want 2", calls)
	}
}

func TestInvalidate(t *testing.T) {
	store := newMemoryStore()
	c := New(store, time.Minute, nil)
	ctx := context.Background()
	tokens := []string{"cat"}
	c.Set(ctx, tokens, 10, result("a.txt"))

	if err := c.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if len(store.data) != 0 {
		t.Errorf("store still holds %d keys", len(store.data))
	}
	if _, ok := c.Get(ctx, tokens, 10); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestInvalidateDuringComputeDropsResult(t *testing.T) {
	c := New(newMemoryStore(), time.Minute, nil)
	ctx := context.Background()
	tokens := []string{"dog"}

	got, hit, err := c.GetOrCompute(ctx, tokens, 10, func() (*executor.SearchResult, error) {
		r := result("old.txt")
		if err := c.Invalidate(ctx); err != nil {
			return nil, err
		}
		return r, nil
	})
	if err != nil || hit {
		t.Fatalf("GetOrCompute() hit=%v err=%v", hit, err)
	}
	if got.Results[0].Path != "old.txt" {
		t.Errorf("caller got %v, want old.txt", got.Results)
	}
	if r, ok := c.Get(ctx, tokens, 10); ok {
		t.Errorf("result computed before invalidation was served: %v", r.Results)
	}

	fresh, hit, err := c.GetOrCompute(ctx, tokens, 10, func() (*executor.SearchResult, error) {
		return result("new.txt"), nil
	})
	if err != nil || hit {
		t.Fatalf("GetOrCompute() hit=%v err=%v", hit, err)
	}
	if fresh.Results[0].Path != "new.txt" {
		t.Errorf("got %v, want new.txt", fresh.Results)
	}
}

func TestGetOrComputeCollapsesConcurrentCalls(t *testing.T) {
	c := New(newMemoryStore(), time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return result("a.txt"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrCompute(context.Background(), []string{"cat"}, 10, compute)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Errorf("compute calls = %d, want 1", n)
	}
}

type downStore struct {
	gets atomic.Int32
}

func (d *downStore) Get(context.Context, string) (string, error) {
	d.gets.Add(1)
	return "", errors.New("connection refused")
}

func (d *downStore) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (d *downStore) FlushByPattern(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestUnavailableStoreFallsThrough(t *testing.T) {
	store := &downStore{}
	c := New(store, time.Minute, nil)
	compute := func() (*executor.SearchResult, error) { return result("a.txt"), nil }

	for i := 0; i < 10; i++ {
		got, hit, err := c.GetOrCompute(context.Background(), []string{"cat"}, 10, compute)
		if err != nil || hit || len(got.Results) != 1 {
			t.Fatalf("call %d: result=%+v hit=%v err=%v", i, got, hit, err)
		}
	}
	if n := store.gets.Load(); n >= 10 {
		t.Errorf("store hit %d times; breaker should have opened", n)
	}
	if err := c.Invalidate(context.Background()); err == nil {
		t.Error("expected invalidate error")
	}
}
