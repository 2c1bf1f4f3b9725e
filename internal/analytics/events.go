// Package analytics records what users search for. Search events are
// buffered by a Collector and flushed in batches to one or more Sinks: the
// in-memory Aggregator, a Kafka topic, and the PostgreSQL query log.
package analytics

import "time"

type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeZeroResult  Outcome = "zero_result"
	OutcomeSyntaxError Outcome = "syntax_error"
	OutcomeError       Outcome = "error"
)

type SearchEvent struct {
	Query     string    `json:"query"`
	Tokens    []string  `json:"tokens"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}
