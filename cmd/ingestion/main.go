// Command ingestion publishes every file under a directory to the document
// ingest topic, where running search services pick it up.
//
// Usage:
//
//	go run ./cmd/ingestion -dir ./more-docs [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/crawler"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	dir := flag.String("dir", "", "directory to publish (defaults to corpus.root)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	root := cfg.Corpus.Root
	if *dir != "" {
		root = *dir
	}
	if root == "" {
		slog.Error("no directory to publish: pass -dir or set corpus.root")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := crawler.Crawl(ctx, root, crawler.Options{
		Extensions:  cfg.Corpus.Extensions,
		ReadWorkers: cfg.Corpus.ReadWorkers,
	})
	if err != nil {
		slog.Error("crawl failed", "root", root, "error", err)
		os.Exit(1)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()
	pub := publisher.New(producer)

	published, skipped := 0, 0
	for _, entry := range entries {
		// Words are re-joined with single spaces; the consumer tokenizes
		// them back into the same sequence.
		req := &ingestion.IngestRequest{Path: entry.Path, Text: strings.Join(entry.Words, " ")}
		if err := validator.ValidateIngestRequest(req); err != nil {
			slog.Warn("skipping document", "path", entry.Path, "error", err)
			skipped++
			continue
		}
		err := resilience.Retry(ctx, "publish-document", resilience.RetryConfig{JitterFraction: 0.1}, func(ctx context.Context) error {
			_, err := pub.Ingest(ctx, req)
			return err
		})
		if err != nil {
			slog.Error("publish failed", "path", entry.Path, "error", err)
			os.Exit(1)
		}
		published++
	}
	slog.Info("ingestion complete",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"published", published,
		"skipped", skipped,
	)
}
