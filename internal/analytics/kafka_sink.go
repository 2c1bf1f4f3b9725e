package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/resilience"
)

// BatchPublisher is the subset of kafka.Producer the sink needs.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// KafkaSink publishes search events as JSON, keyed by query text so every
// occurrence of a query lands on the same partition.
type KafkaSink struct {
	producer BatchPublisher
	retry    resilience.RetryConfig
}

func NewKafkaSink(producer BatchPublisher) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialDelay:   200 * time.Millisecond,
			MaxDelay:       2 * time.Second,
			JitterFraction: 0.1,
		},
	}
}

func (s *KafkaSink) Write(ctx context.Context, events []SearchEvent) error {
	batch := make([]kafka.Event, len(events))
	for i, e := range events {
		batch[i] = kafka.Event{Key: e.Query, Value: e}
	}
	err := resilience.Retry(ctx, "publish-search-events", s.retry, func(ctx context.Context) error {
		return s.producer.PublishBatch(ctx, batch)
	})
	if err != nil {
		return fmt.Errorf("publishing search events: %w", err)
	}
	return nil
}
