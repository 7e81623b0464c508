package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS console_audit (
		id           UUID PRIMARY KEY,
		session      TEXT        NOT NULL,
		action       TEXT        NOT NULL,
		promotion_id TEXT        NOT NULL DEFAULT '',
		outcome      TEXT        NOT NULL,
		message      TEXT        NOT NULL DEFAULT '',
		recorded_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_console_audit_promotion ON console_audit (promotion_id, recorded_at);
`

// PostgresRecorder implements Recorder using PostgreSQL.
type PostgresRecorder struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresRecorder creates a PostgreSQL-backed recorder. The pool is
// owned by the caller and is not closed by Close.
func NewPostgresRecorder(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresRecorder {
	return &PostgresRecorder{
		pool:   pool,
		logger: logger.With().Str("component", "audit-postgres").Logger(),
	}
}

// EnsureSchema creates the audit table if it does not exist.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTableSQL); err != nil {
		r.logger.Error().Err(err).Msg("failed to create audit table")
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO console_audit (id, session, action, promotion_id, outcome, message, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Session,
		entry.Action,
		entry.PromotionID,
		string(entry.Outcome),
		entry.Message,
		entry.RecordedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("entry_id", entry.ID.String()).
			Str("action", entry.Action).
			Msg("failed to record audit entry")
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// ListByPromotion returns the entries for a promotion, oldest first.
func (r *PostgresRecorder) ListByPromotion(ctx context.Context, promotionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session, action, promotion_id, outcome, message, recorded_at
		FROM console_audit
		WHERE promotion_id = $1
		ORDER BY recorded_at, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, promotionID, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("promotion_id", promotionID).Msg("failed to query audit entries")
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var outcome string
		if err := rows.Scan(&e.ID, &e.Session, &e.Action, &e.PromotionID, &outcome, &e.Message, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// Close implements Recorder.
func (r *PostgresRecorder) Close() error {
	return nil
}
