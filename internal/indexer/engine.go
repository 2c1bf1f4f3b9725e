// Package indexer owns the live inverted index. Engine serialises ingestion
// against queries and runs the parse, evaluate and rank pipeline.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/crawler"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/evaluator"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/metrics"
)

// Stats is a point-in-time view of the corpus.
type Stats struct {
	Documents int            `json:"documents"`
	Terms     int            `json:"terms"`
	IDFMode   ranker.IDFMode `json:"idf_mode"`
}

type Engine struct {
	mu      sync.RWMutex
	idx     *index.Index
	idfMode ranker.IDFMode
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates an engine over an empty index. m may be nil.
func NewEngine(idfMode ranker.IDFMode, m *metrics.Metrics) *Engine {
	return &Engine{
		idx:     index.New(),
		idfMode: idfMode,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
}

// IndexDocument adds one document. The engine copies words; the caller keeps
// ownership of the slice.
func (e *Engine) IndexDocument(path string, words []string) error {
	e.mu.Lock()
	err := e.idx.Ingest(path, words)
	docs, terms := e.idx.DocCount(), e.idx.Terms()
	e.mu.Unlock()

	if err != nil {
		e.observeIndexed("rejected", docs, terms)
		return fmt.Errorf("indexing %s: %w", path, err)
	}
	e.observeIndexed("indexed", docs, terms)
	e.logger.Debug("document indexed",
		"path", path,
		"word_count", len(words),
		"corpus_size", docs,
	)
	return nil
}

// IndexCorpus ingests crawled entries in order. Duplicate paths are logged
// and skipped; any other failure stops ingestion.
func (e *Engine) IndexCorpus(ctx context.Context, entries []crawler.Entry) (int, error) {
	indexed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := e.IndexDocument(entry.Path, entry.Words); err != nil {
			if errors.Is(err, apperrors.ErrDocumentExists) {
				e.logger.Warn("skipping duplicate document", "path", entry.Path)
				continue
			}
			return indexed, err
		}
		indexed++
	}
	stats := e.Stats()
	e.logger.Info("corpus indexed",
		"indexed", indexed,
		"documents", stats.Documents,
		"terms", stats.Terms,
	)
	return indexed, nil
}

// Query parses tokens, evaluates the query and returns the matches ranked by
// descending tf-idf score. A valid query without matches returns an empty,
// non-nil slice. A malformed query returns an error wrapping
// apperrors.ErrSyntax.
func (e *Engine) Query(tokens []string) ([]ranker.ScoredDoc, error) {
	root, err := parser.Parse(tokens)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	candidates := evaluator.Evaluate(root, e.idx)
	if candidates.Len() == 0 {
		return []ranker.ScoredDoc{}, nil
	}
	return ranker.Rank(candidates.Documents(), tokens, e.idx, e.idfMode), nil
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Documents: e.idx.DocCount(),
		Terms:     e.idx.Terms(),
		IDFMode:   e.idfMode,
	}
}

// Paths lists every indexed path in ascending order.
func (e *Engine) Paths() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Paths()
}

// Close releases the index. Later ingestion fails with ErrIndexClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idx.Close()
	e.logger.Info("index closed")
	return nil
}

func (e *Engine) observeIndexed(status string, docs, terms int) {
	if e.metrics == nil {
		return
	}
	e.metrics.DocsIndexedTotal.WithLabelValues(status).Inc()
	e.metrics.CorpusDocuments.Set(float64(docs))
	e.metrics.IndexTerms.Set(float64(terms))
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Closed()
}
