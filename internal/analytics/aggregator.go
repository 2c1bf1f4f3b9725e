package analytics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// AggregatedStats is a snapshot of the search traffic seen since start.
// Outcomes splits TotalSearches by how each query ended.
type AggregatedStats struct {
	TotalSearches     int64             `json:"total_searches"`
	CacheHits         int64             `json:"cache_hits"`
	CacheMisses       int64             `json:"cache_misses"`
	ZeroResultCount   int64             `json:"zero_result_count"`
	SyntaxErrorCount  int64             `json:"syntax_error_count"`
	ErrorCount        int64             `json:"error_count"`
	Outcomes          map[Outcome]int64 `json:"outcomes"`
	AvgLatencyMs      float64           `json:"avg_latency_ms"`
	P50LatencyMs      int64             `json:"p50_latency_ms"`
	P95LatencyMs      int64             `json:"p95_latency_ms"`
	P99LatencyMs      int64             `json:"p99_latency_ms"`
	TopQueries        []QueryCount      `json:"top_queries"`
	ZeroResultQueries []QueryCount      `json:"zero_result_queries"`
	QueriesPerMinute  float64           `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator keeps running search statistics in memory. It is a Sink.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	outcomes          map[Outcome]int64
	latencies         []int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		outcomes:          make(map[Outcome]int64),
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
	}
}

func (a *Aggregator) Write(_ context.Context, events []SearchEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, event := range events {
		a.record(event)
	}
	return nil
}

func (a *Aggregator) record(event SearchEvent) {
	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.latencies = append(a.latencies, event.LatencyMs)
	a.queryCounts[event.Query]++
	a.outcomes[event.Outcome]++
	if event.Outcome == OutcomeZeroResult {
		a.zeroResultQueries[event.Query]++
	}
}

// Stats returns the current snapshot with at most top entries in each
// query ranking.
func (a *Aggregator) Stats(top int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	outcomes := make(map[Outcome]int64, len(a.outcomes))
	for o, n := range a.outcomes {
		outcomes[o] = n
	}
	stats := AggregatedStats{
		TotalSearches:    a.totalSearches,
		CacheHits:        a.cacheHits,
		CacheMisses:      a.cacheMisses,
		ZeroResultCount:  a.outcomes[OutcomeZeroResult],
		SyntaxErrorCount: a.outcomes[OutcomeSyntaxError],
		ErrorCount:       a.outcomes[OutcomeError],
		Outcomes:         outcomes,
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, top)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, top)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
