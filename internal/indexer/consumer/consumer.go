// Package consumer reads ingestion events from Kafka and indexes them via the
// indexer engine. The ingest topic is replayed from the first offset on every
// start, so the in-memory index is rebuilt from the log after a restart.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
)

// DocumentIndexer is the subset of indexer.Engine the consumer needs.
type DocumentIndexer interface {
	IndexDocument(path string, words []string) error
}

// Starter is satisfied by *kafka.Consumer.
type Starter interface {
	Start(ctx context.Context) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer Starter
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer Starter) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that tokenizes each ingest
// event and adds it to engine. onIndexed may be nil; it runs after every
// document that changed the index.
//
// Undecodable messages and paths that are already indexed are logged and
// acknowledged. Replaying the topic after a restart hits the latter for
// every document that was also crawled from disk.
func HandleMessage(engine DocumentIndexer, onIndexed func(ctx context.Context, path string)) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if event.Path == "" {
			logger.Warn("dropping ingest event without path", "key", string(key))
			return nil
		}

		words := tokenizer.Words(event.Text)
		if err := engine.IndexDocument(event.Path, words); err != nil {
			if errors.Is(err, apperrors.ErrDocumentExists) {
				logger.Debug("document already indexed", "path", event.Path)
				return nil
			}
			return fmt.Errorf("indexing document %s: %w", event.Path, err)
		}
		if onIndexed != nil {
			onIndexed(ctx, event.Path)
		}

		logger.Info("document indexed",
			"path", event.Path,
			"word_count", len(words),
		)
		return nil
	}
}
