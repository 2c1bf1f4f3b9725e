// Package executor turns a raw query string into a ranked, truncated search
// result using the indexer engine.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/logger"
)

// QueryEngine is satisfied by *indexer.Engine.
type QueryEngine interface {
	Query(tokens []string) ([]ranker.ScoredDoc, error)
}

type SearchResult struct {
	Query     string             `json:"query"`
	Tokens    []string           `json:"tokens"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
}

type Executor struct {
	engine QueryEngine
	logger *slog.Logger
}

func New(engine QueryEngine) *Executor {
	return &Executor{
		engine: engine,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute tokenizes rawQuery, runs it and keeps the best limit results. A
// limit of zero or less returns every match. TotalHits always counts every
// match.
func (e *Executor) Execute(ctx context.Context, rawQuery string, limit int) (*SearchResult, error) {
	if ctx.Err() != nil {
		return nil, apperrors.New(apperrors.ErrTimeout, http.StatusServiceUnavailable, "search cancelled")
	}
	tokens := tokenizer.Query(rawQuery)
	ranked, err := e.engine.Query(tokens)
	if err != nil {
		return nil, fmt.Errorf("executing query %q: %w", rawQuery, err)
	}

	total := len(ranked)
	if limit > 0 && total > limit {
		ranked = ranked[:limit]
	}
	logger.FromContext(ctx).Debug("query executed",
		"component", "query-executor",
		"query", rawQuery,
		"tokens", tokens,
		"total_hits", total,
		"returned", len(ranked),
	)
	return &SearchResult{
		Query:     rawQuery,
		Tokens:    tokens,
		TotalHits: total,
		Results:   ranked,
	}, nil
}
