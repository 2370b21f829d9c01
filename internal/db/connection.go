// Package db implements the session registry and the vector index on
// Postgres with the pgvector extension. It is the durable alternative to
// the in-memory stores; both registry and index live behind one pool.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the database connection pool
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection
func New(connString string) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.pool.Close()
}

// EnsureSchema creates the pgvector extension and the tables this service
// needs. Safe to run on every startup; dimensions fixes the vector column
// width and must match the configured embedder.
func (db *DB) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", dimensions)
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_accessed TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			document_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS collections (
			session_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			session_id TEXT NOT NULL REFERENCES collections(session_id) ON DELETE CASCADE,
			seq INT NOT NULL,
			content TEXT NOT NULL,
			page INT NOT NULL,
			bbox_x0 DOUBLE PRECISION NOT NULL,
			bbox_y0 DOUBLE PRECISION NOT NULL,
			bbox_x1 DOUBLE PRECISION NOT NULL,
			bbox_y1 DOUBLE PRECISION NOT NULL,
			embedding vector(%d) NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS sessions_last_accessed_idx ON sessions (last_accessed)`,
	}

	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
