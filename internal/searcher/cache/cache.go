// Package cache memoises search results in Redis. Concurrent identical
// queries are collapsed with singleflight and only successful results are
// stored, so malformed queries are re-parsed every time.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Store is the subset of *redis.Client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store      Store
	breaker    *resilience.CircuitBreaker
	ttl        time.Duration
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *slog.Logger
	generation atomic.Uint64
	hits       atomic.Int64
	misses     atomic.Int64
}

// New creates a cache over store. m may be nil. Reads and writes go through
// a circuit breaker so that an unreachable Redis costs one fast failure per
// search instead of a network timeout.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		breaker: resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{}),
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, tokens []string, limit int) (*executor.SearchResult, bool) {
	return c.get(ctx, c.buildKey(c.generation.Load(), tokens, limit), tokens)
}

func (c *QueryCache) Set(ctx context.Context, tokens []string, limit int, result *executor.SearchResult) {
	c.set(ctx, c.buildKey(c.generation.Load(), tokens, limit), result)
}

func (c *QueryCache) get(ctx context.Context, key string, tokens []string) (*executor.SearchResult, bool) {
	var data string
	found := false
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if !found {
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "tokens", tokens, "key", key)
	return &result, true
}

func (c *QueryCache) set(ctx context.Context, key string, result *executor.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for tokens and limit, or runs
// computeFn once for all concurrent callers asking for the same key. The
// boolean reports a cache hit. Errors from computeFn are returned and never
// cached. The result is stored under the generation current when the lookup
// started, so an Invalidate during computeFn leaves it unreachable.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	tokens []string,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	key := c.buildKey(c.generation.Load(), tokens, limit)
	if result, ok := c.get(ctx, key, tokens); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached result. Keys embed a generation number that
// is bumped first, so results computed before the call can no longer be
// read even if they are stored after the flush.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.generation.Add(1)
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the token list rather than the raw query, so queries that
// differ only in spacing share an entry. Tokens are case-sensitive and are
// not reordered: AND, OR and ANDNOT sequences are order dependent.
func (c *QueryCache) buildKey(generation uint64, tokens []string, limit int) string {
	raw := fmt.Sprintf("%s\x00limit=%d", strings.Join(tokens, "\x1f"), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%d:%x", keyPrefix, generation, hash[:16])
}
