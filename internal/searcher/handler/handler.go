package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, rawQuery string, limit int) (*executor.SearchResult, error)
}

// StatsProvider is satisfied by *indexer.Engine.
type StatsProvider interface {
	Stats() indexer.Stats
}

// Tracker is satisfied by *analytics.Collector.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

type Options struct {
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor  SearchExecutor
	cache     *cache.QueryCache
	collector Tracker
	stats     StatsProvider
	metrics   *metrics.Metrics
	opts      Options
	logger    *slog.Logger
}

// New builds the search handler. queryCache, collector and m may be nil.
func New(exec SearchExecutor, stats StatsProvider, queryCache *cache.QueryCache, collector Tracker, m *metrics.Metrics, opts Options) *Handler {
	return &Handler{
		executor:  exec,
		cache:     queryCache,
		collector: collector,
		stats:     stats,
		metrics:   m,
		opts:      opts,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Search answers GET /api/v1/search?q=...&limit=N. Malformed queries are
// answered with 400 and the parser's message.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.opts.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if h.opts.MaxResults > 0 && (limit <= 0 || limit > h.opts.MaxResults) {
		limit = h.opts.MaxResults
	}

	tokens := tokenizer.Query(query)
	compute := func() (*executor.SearchResult, error) {
		return h.executor.Execute(ctx, query, limit)
	}

	var result *executor.SearchResult
	var err error
	cacheHit := false
	cacheStatus := "disabled"
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, tokens, limit, compute)
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
	} else {
		result, err = compute()
	}
	latency := time.Since(start)

	event := analytics.SearchEvent{
		Query:     query,
		Tokens:    tokens,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  cacheHit,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	}

	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		event.Error = apperrors.Message(err)
		if errors.Is(err, apperrors.ErrSyntax) {
			event.Outcome = analytics.OutcomeSyntaxError
			log.Info("rejected malformed query", "query", query, "error", event.Error)
			h.observe(event, cacheStatus, latency)
			h.writeError(w, status, event.Error)
			return
		}
		event.Outcome = analytics.OutcomeError
		log.Error("search execution failed", "query", query, "error", err)
		h.observe(event, cacheStatus, latency)
		h.writeError(w, status, "search failed")
		return
	}

	event.TotalHits = result.TotalHits
	event.Returned = len(result.Results)
	event.Outcome = analytics.OutcomeOK
	if result.TotalHits == 0 {
		event.Outcome = analytics.OutcomeZeroResult
	}
	h.observe(event, cacheStatus, latency)

	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", event.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) observe(event analytics.SearchEvent, cacheStatus string, latency time.Duration) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(string(event.Outcome)).Inc()
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
		if event.Outcome == analytics.OutcomeOK || event.Outcome == analytics.OutcomeZeroResult {
			h.metrics.SearchResultsCount.Observe(float64(event.TotalHits))
		}
	}
	if h.collector != nil {
		h.collector.Track(event)
	}
}

// Stats answers GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
