package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS quest_sessions (
		key        TEXT PRIMARY KEY,
		record     BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS quest_events (
		id          BIGSERIAL PRIMARY KEY,
		identity_id TEXT NOT NULL,
		event_type  TEXT NOT NULL,
		data        JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quest_events_identity ON quest_events (identity_id, created_at)`,
}

// Migrate creates the service tables if they do not exist. Every statement is
// idempotent so it runs on each start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Migrate runs the schema migrations on db's pool.
func (db *DB) Migrate(ctx context.Context) error {
	return Migrate(ctx, db.Pool)
}
