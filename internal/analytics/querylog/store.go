// Package querylog persists search events to PostgreSQL.
package querylog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/analytics"
)

// Schema creates the table the Store writes to.
const Schema = `CREATE TABLE IF NOT EXISTS search_queries (
    id          BIGSERIAL PRIMARY KEY,
    query       TEXT NOT NULL,
    tokens      TEXT[] NOT NULL,
    outcome     TEXT NOT NULL,
    error       TEXT,
    total_hits  INTEGER NOT NULL,
    returned    INTEGER NOT NULL,
    latency_ms  BIGINT NOT NULL,
    cache_hit   BOOLEAN NOT NULL,
    request_id  TEXT,
    searched_at TIMESTAMPTZ NOT NULL
)`

// TxRunner runs fn inside a transaction. postgres.Client satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Store is an analytics.Sink writing one row per search event.
type Store struct {
	db     TxRunner
	logger *slog.Logger
}

func NewStore(db TxRunner) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "query-log"),
	}
}

// Migrate creates the search_queries table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, Schema); err != nil {
			return fmt.Errorf("creating search_queries: %w", err)
		}
		return nil
	})
}

// Write inserts events in a single transaction.
func (s *Store) Write(ctx context.Context, events []analytics.SearchEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO search_queries
			(query, tokens, outcome, error, total_hits, returned, latency_ms, cache_hit, request_id, searched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			_, err := stmt.ExecContext(ctx,
				e.Query,
				pq.Array(e.Tokens),
				string(e.Outcome),
				nullableString(e.Error),
				e.TotalHits,
				e.Returned,
				e.LatencyMs,
				e.CacheHit,
				nullableString(e.RequestID),
				timestamp(e.Timestamp),
			)
			if err != nil {
				return fmt.Errorf("inserting query %q: %w", e.Query, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing query log: %w", err)
	}
	s.logger.Debug("query log written", "events", len(events))
	return nil
}

// TopZeroResult returns the most frequent queries that matched nothing
// since the given time.
func (s *Store) TopZeroResult(ctx context.Context, since time.Time, limit int) ([]analytics.QueryCount, error) {
	var counts []analytics.QueryCount
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT query, COUNT(*) FROM search_queries
			WHERE outcome = $1 AND searched_at >= $2
			GROUP BY query ORDER BY COUNT(*) DESC, query LIMIT $3`,
			string(analytics.OutcomeZeroResult), since, limit,
		)
		if err != nil {
			return fmt.Errorf("querying zero-result queries: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var qc analytics.QueryCount
			if err := rows.Scan(&qc.Query, &qc.Count); err != nil {
				return fmt.Errorf("scanning zero-result row: %w", err)
			}
			counts = append(counts, qc)
		}
		return rows.Err()
	})
	return counts, err
}

func nullableString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
