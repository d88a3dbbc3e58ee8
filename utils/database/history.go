// Package database records generation history in Postgres.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eidosai/eidos/utils/config"
	"github.com/lib/pq"
)

// Status of a recorded generation
const (
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Generation is one processed command
type Generation struct {
	ID          int64
	Repository  string
	IssueNumber int
	CommentID   int64
	Kind        string
	Count       int
	Provider    string
	Model       string
	URLs        []string
	Failures    int
	Error       string
	DurationMS  int64
	CreatedAt   time.Time
}

// Status derives the outcome from the number of URLs and failures
func (g Generation) Status() string {
	switch {
	case len(g.URLs) == 0:
		return StatusFailed
	case g.Failures > 0:
		return StatusPartial
	default:
		return StatusSucceeded
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS eidos_generations (
	id           BIGSERIAL PRIMARY KEY,
	repository   TEXT        NOT NULL,
	issue_number INTEGER     NOT NULL,
	comment_id   BIGINT      NOT NULL DEFAULT 0,
	kind         TEXT        NOT NULL,
	count        INTEGER     NOT NULL,
	provider     TEXT        NOT NULL,
	model        TEXT        NOT NULL,
	urls         TEXT[]      NOT NULL DEFAULT '{}',
	failures     INTEGER     NOT NULL DEFAULT 0,
	status       TEXT        NOT NULL,
	error        TEXT        NOT NULL DEFAULT '',
	duration_ms  BIGINT      NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS eidos_generations_issue_idx ON eidos_generations (repository, issue_number);
`

const insertGeneration = `
INSERT INTO eidos_generations
	(repository, issue_number, comment_id, kind, count, provider, model, urls, failures, status, error, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at`

const selectForIssue = `
SELECT id, repository, issue_number, comment_id, kind, count, provider, model, urls, failures, error, duration_ms, created_at
FROM eidos_generations
WHERE repository = $1 AND issue_number = $2
ORDER BY created_at DESC, id DESC
LIMIT $3`

// Store persists generations
type Store struct {
	db *sql.DB
}

// Open connects to the configured database and verifies the connection
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("no database configured")
	}
	db, err := sql.Open("postgres", cfg.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an existing connection pool
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the history table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record inserts a generation and fills in its ID and creation time
func (s *Store) Record(ctx context.Context, g *Generation) error {
	urls := g.URLs
	if urls == nil {
		urls = []string{}
	}
	row := s.db.QueryRowContext(ctx, insertGeneration,
		g.Repository, g.IssueNumber, g.CommentID, g.Kind, g.Count, g.Provider, g.Model,
		pq.Array(urls), g.Failures, g.Status(), g.Error, g.DurationMS)
	if err := row.Scan(&g.ID, &g.CreatedAt); err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	config.DebugLog("Recorded generation %d for %s#%d", g.ID, g.Repository, g.IssueNumber)
	return nil
}

// ListForIssue returns the most recent generations for an issue, newest first
func (s *Store) ListForIssue(ctx context.Context, repository string, issue, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectForIssue, repository, issue, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var result []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.ID, &g.Repository, &g.IssueNumber, &g.CommentID, &g.Kind, &g.Count,
			&g.Provider, &g.Model, pq.Array(&g.URLs), &g.Failures, &g.Error, &g.DurationMS, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
