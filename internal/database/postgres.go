package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stwalsh4118/catastro/internal/config"
)

// Database wraps the pgx connection pool backing the PostgreSQL registry.
type Database struct {
	Pool *pgxpool.Pool
}

// ConnString builds the postgres:// DSN for cfg. User and password are escaped.
func ConnString(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// NewPostgresPool creates a new PostgreSQL connection pool using pgx,
// pings it and returns a Database instance.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)

	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Second
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{Pool: pool}, nil
}

// ErrSchemaMissing is returned by VerifySchema when the parcels schema has not been migrated.
var ErrSchemaMissing = errors.New("parcels schema missing; apply migrations/001_create_parcels.sql")

// VerifySchema checks that PostGIS is installed and the parcels table exists.
func (db *Database) VerifySchema(ctx context.Context) error {
	var hasPostGIS, hasParcels bool
	err := db.Pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'postgis'),
			to_regclass('public.parcels') IS NOT NULL
	`).Scan(&hasPostGIS, &hasParcels)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	switch {
	case !hasPostGIS:
		return fmt.Errorf("%w: postgis extension not installed", ErrSchemaMissing)
	case !hasParcels:
		return fmt.Errorf("%w: table parcels not found", ErrSchemaMissing)
	}
	return nil
}

// Ping checks if the database connection is alive.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the pool. Safe to call more than once.
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Stats returns statistics about the connection pool.
func (db *Database) Stats() *pgxpool.Stat {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Stat()
}
