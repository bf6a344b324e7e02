package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

const createSummariesTable = `
CREATE TABLE IF NOT EXISTS batch_summaries (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL
)`

// PostgresSummaryRepository keeps batch summaries in a Postgres table with
// the full summary as a JSONB payload.
type PostgresSummaryRepository struct {
	pool *pgxpool.Pool
}

var _ SummaryRepository = (*PostgresSummaryRepository)(nil)

// NewPostgresSummaryRepository connects to databaseURL and ensures the
// summaries table exists.
func NewPostgresSummaryRepository(ctx context.Context, databaseURL string) (*PostgresSummaryRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createSummariesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure summaries table: %w", err)
	}
	return &PostgresSummaryRepository{pool: pool}, nil
}

func (r *PostgresSummaryRepository) SaveSummary(ctx context.Context, summary models.BatchSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal batch summary: %w", err)
	}

	// Summaries are write-once; re-running a batch with the same id is a bug
	// upstream, so conflicts are rejected rather than overwritten.
	_, err = r.pool.Exec(ctx,
		`INSERT INTO batch_summaries (id, created_at, payload) VALUES ($1, $2, $3)`,
		summary.ID, summary.Timestamp.UTC(), payload)
	if err != nil {
		return fmt.Errorf("failed to insert batch summary %s: %w", summary.ID, err)
	}
	return nil
}

func (r *PostgresSummaryRepository) ListSummaries(ctx context.Context, start, end time.Time) ([]models.BatchSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, payload FROM batch_summaries WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query batch summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.BatchSummary
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan batch summary row: %w", err)
		}

		var summary models.BatchSummary
		if err := json.Unmarshal(payload, &summary); err != nil {
			logrus.Warnf("Skipping malformed summary row %s: %v", id, err)
			continue
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batch summaries: %w", err)
	}
	return summaries, nil
}

// Close releases the connection pool.
func (r *PostgresSummaryRepository) Close() {
	r.pool.Close()
}
