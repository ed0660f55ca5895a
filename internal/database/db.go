// Package database persists signal records to PostgreSQL and serves the
// query surface behind the API.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config) (*DB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	// Parse connection string
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	// Configure connection pool
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Create connection pool
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	migrations := []string{
		// Create signals table
		`CREATE TABLE IF NOT EXISTS signals (
			id UUID PRIMARY KEY,
			ticker VARCHAR(10) NOT NULL,
			classification VARCHAR(20) NOT NULL,
			price DECIMAL(20, 8) NOT NULL,
			rsi DECIMAL(10, 4) NOT NULL DEFAULT 0,
			nearest_support DECIMAL(20, 8) NOT NULL DEFAULT 0,
			nearest_resistance DECIMAL(20, 8) NOT NULL DEFAULT 0,
			point_of_control DECIMAL(20, 8) NOT NULL DEFAULT 0,
			gates JSONB NOT NULL,
			evaluated_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ticker ON signals(ticker)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_classification ON signals(classification)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_evaluated_at ON signals(evaluated_at DESC)`,

		// Create scan_runs table for run-level history
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id UUID PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			macro_passed BOOLEAN NOT NULL,
			macro_reason TEXT,
			evaluated INT NOT NULL DEFAULT 0,
			strong_buys INT NOT NULL DEFAULT 0,
			watches INT NOT NULL DEFAULT 0,
			no_signals INT NOT NULL DEFAULT 0,
			alerts_sent INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_started_at ON scan_runs(started_at DESC)`,
	}

	// Execute migrations
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// HealthCheck performs a database health check
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
