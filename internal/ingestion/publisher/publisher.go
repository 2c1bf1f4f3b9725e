// Package publisher hands validated documents to the index, either directly
// into the local engine or asynchronously through a Kafka topic that the
// index consumer replays.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
)

// DocumentIndexer is the subset of indexer.Engine used for direct ingestion.
type DocumentIndexer interface {
	IndexDocument(path string, words []string) error
}

// EventPublisher is the subset of kafka.Producer used for async ingestion.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Local indexes documents synchronously. OnIndexed, when set, runs after
// every successful ingest.
type Local struct {
	engine    DocumentIndexer
	OnIndexed func(ctx context.Context, path string)
	logger    *slog.Logger
}

func NewLocal(engine DocumentIndexer) *Local {
	return &Local{
		engine: engine,
		logger: slog.Default().With("component", "local-publisher"),
	}
}

func (l *Local) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	words := tokenizer.Words(req.Text)
	if err := l.engine.IndexDocument(req.Path, words); err != nil {
		return nil, err
	}
	if l.OnIndexed != nil {
		l.OnIndexed(ctx, req.Path)
	}
	return &ingestion.IngestResponse{
		Path:      req.Path,
		Status:    ingestion.StatusIndexed,
		WordCount: len(words),
	}, nil
}

// Publisher publishes IngestEvents keyed by path. Indexing happens later in
// the consumer, so duplicate paths are only detected there.
type Publisher struct {
	producer EventPublisher
	logger   *slog.Logger
}

func New(producer EventPublisher) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	event := kafka.Event{
		Key: req.Path,
		Value: ingestion.IngestEvent{
			Path:        req.Path,
			Text:        req.Text,
			SubmittedAt: time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("publishing ingest event for %s: %w", req.Path, err)
	}
	p.logger.Debug("ingest event published", "path", req.Path)
	return &ingestion.IngestResponse{
		Path:      req.Path,
		Status:    ingestion.StatusPending,
		WordCount: len(tokenizer.Words(req.Text)),
	}, nil
}
