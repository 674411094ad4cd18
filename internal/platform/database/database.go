// Package database manages the PostgreSQL pool behind durable sessions and
// the quest event journal.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "examgenius"

// ErrNotMigrated is reported by HealthCheck when the quest tables are missing.
var ErrNotMigrated = errors.New("database schema is not migrated")

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Option adjusts the pool configuration before connecting.
type Option func(*pgxpool.Config)

// WithPoolSize bounds the pool. Non-positive values keep the pgx defaults.
func WithPoolSize(maxConns, minConns int) Option {
	return func(cfg *pgxpool.Config) {
		if maxConns > 0 {
			cfg.MaxConns = int32(maxConns)
		}
		if minConns > 0 {
			cfg.MinConns = int32(minConns)
		}
	}
}

// ParseURL validates a PostgreSQL connection URL. Connections identify
// themselves as examgenius unless the URL names an application.
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	if cfg.ConnConfig.RuntimeParams["application_name"] == "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	return cfg, nil
}

// New connects a pool and pings it.
func New(ctx context.Context, url string, opts ...Option) (*DB, error) {
	cfg, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck verifies the connection is alive and the quest tables exist.
func (db *DB) HealthCheck(ctx context.Context) error {
	var migrated bool
	err := db.Pool.QueryRow(ctx, `SELECT to_regclass('quest_sessions') IS NOT NULL`).Scan(&migrated)
	if err != nil {
		return fmt.Errorf("checking database: %w", err)
	}
	if !migrated {
		return ErrNotMigrated
	}
	return nil
}
