package db

import (
	"context"
	"fmt"
	"time"

	"github.com/docquery-ai/server/internal/session"
)

// Registry methods; *DB satisfies session.Registry.
var _ session.Registry = (*DB)(nil)

// Register upserts a session row, stamping both timestamps to now
func (db *DB) Register(ctx context.Context, id, documentName string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO sessions (session_id, created_at, last_accessed, document_name)
		 VALUES ($1, NOW(), NOW(), $2)
		 ON CONFLICT (session_id) DO UPDATE
		 SET created_at = NOW(), last_accessed = NOW(), document_name = EXCLUDED.document_name`,
		id, documentName,
	)
	if err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	return nil
}

// Touch refreshes last_accessed for the session
func (db *DB) Touch(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE sessions SET last_accessed = NOW() WHERE session_id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// ListExpired returns sessions whose last access is older than now-ttl
func (db *DB) ListExpired(ctx context.Context, now time.Time, ttl time.Duration) ([]session.Session, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT session_id, created_at, last_accessed, document_name
		 FROM sessions WHERE last_accessed < $1`,
		now.Add(-ttl),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	defer rows.Close()

	var expired []session.Session
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(&sess.ID, &sess.CreatedAt, &sess.LastAccessed, &sess.DocumentName); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		expired = append(expired, sess)
	}
	return expired, rows.Err()
}

// Remove deletes the session row; removing an unknown id is a no-op
func (db *DB) Remove(ctx context.Context, id string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Count reports the number of registered sessions
func (db *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
