package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]SearchEvent
	err     error
}

func (s *recordingSink) Write(_ context.Context, events []SearchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, events)
	return nil
}

func (s *recordingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestCollectorFlushFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	c := NewCollector(10, time.Hour, a, b)

	c.Track(SearchEvent{Query: "cat"})
	c.Track(SearchEvent{Query: "dog"})
	if c.BufferLen() != 2 {
		t.Fatalf("BufferLen() = %d", c.BufferLen())
	}
	c.Flush(context.Background())

	if a.total() != 2 || b.total() != 2 {
		t.Errorf("sinks received %d and %d events, want 2 each", a.total(), b.total())
	}
	if c.BufferLen() != 0 {
		t.Errorf("buffer not drained: %d", c.BufferLen())
	}
}

func TestCollectorRequeuesWhenAllSinksFail(t *testing.T) {
	sink := &recordingSink{err: errors.New("down")}
	c := NewCollector(2, time.Hour, sink)

	c.Track(SearchEvent{Query: "a"})
	c.Flush(context.Background())
	if c.BufferLen() != 1 {
		t.Errorf("BufferLen() = %d after failed flush, want 1", c.BufferLen())
	}
}

func TestCollectorPartialFailureDrops(t *testing.T) {
	ok, bad := &recordingSink{}, &recordingSink{err: errors.New("down")}
	c := NewCollector(10, time.Hour, ok, bad)
	c.Track(SearchEvent{Query: "a"})
	c.Flush(context.Background())
	if c.BufferLen() != 0 {
		t.Errorf("BufferLen() = %d, want 0", c.BufferLen())
	}
	if ok.total() != 1 {
		t.Errorf("healthy sink received %d events", ok.total())
	}
}

func TestCollectorFinalFlushOnCancel(t *testing.T) {
	sink := &recordingSink{}
	c := NewCollector(100, time.Hour, sink)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Track(SearchEvent{Query: "a"})
	cancel()
	c.Close()
	if sink.total() != 1 {
		t.Errorf("final flush delivered %d events, want 1", sink.total())
	}
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	events := []SearchEvent{
		{Query: "cat", Outcome: OutcomeOK, LatencyMs: 2},
		{Query: "cat", Outcome: OutcomeOK, LatencyMs: 4, CacheHit: true},
		{Query: "unicorn", Outcome: OutcomeZeroResult, LatencyMs: 1},
		{Query: "( cat", Outcome: OutcomeSyntaxError, LatencyMs: 1},
	}
	if err := agg.Write(context.Background(), events); err != nil {
		t.Fatal(err)
	}
	stats := agg.Stats(10)
	if stats.TotalSearches != 4 || stats.CacheHits != 1 || stats.CacheMisses != 3 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.ZeroResultCount != 1 || stats.SyntaxErrorCount != 1 || stats.ErrorCount != 0 {
		t.Errorf("outcomes = %+v", stats)
	}
	if stats.Outcomes[OutcomeOK] != 2 {
		t.Errorf("Outcomes[ok] = %d, want 2", stats.Outcomes[OutcomeOK])
	}
	if got := agg.Stats(1); len(got.TopQueries) != 1 {
		t.Errorf("Stats(1) returned %d top queries", len(got.TopQueries))
	}
	if stats.AvgLatencyMs != 2 {
		t.Errorf("AvgLatencyMs = %v, want 2", stats.AvgLatencyMs)
	}
	if len(stats.TopQueries) == 0 || stats.TopQueries[0] != (QueryCount{Query: "cat", Count: 2}) {
		t.Errorf("TopQueries = %+v", stats.TopQueries)
	}
	if len(stats.ZeroResultQueries) != 1 || stats.ZeroResultQueries[0].Query != "unicorn" {
		t.Errorf("ZeroResultQueries = %+v", stats.ZeroResultQueries)
	}
}

type fakePublisher struct {
	events   []kafka.Event
	failures int
	calls    int
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("leader not available")
	}
	f.events = append(f.events, events...)
	return nil
}

func TestKafkaSinkKeysByQuery(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaSink(pub)
	if err := sink.Write(context.Background(), []SearchEvent{{Query: "cat AND dog"}}); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 1 || pub.events[0].Key != "cat AND dog" {
		t.Errorf("published = %+v", pub.events)
	}
}

func TestKafkaSinkRetriesTransientFailures(t *testing.T) {
	pub := &fakePublisher{failures: 1}
	sink := NewKafkaSink(pub)
	sink.retry.InitialDelay = time.Millisecond
	if err := sink.Write(context.Background(), []SearchEvent{{Query: "cat"}}); err != nil {
		t.Fatal(err)
	}
	if pub.calls != 2 || len(pub.events) != 1 {
		t.Errorf("calls = %d, events = %d", pub.calls, len(pub.events))
	}
}
