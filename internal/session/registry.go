// Package session tracks per-upload session state and drives its expiry.
// A session row, its vector collection, and its temporary document file are
// created together and reclaimed together; the registry is the source of
// truth for which sessions still exist.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the session is not registered (or already expired).
var ErrNotFound = errors.New("session not found")

// Session is one isolated, time-limited unit of uploaded-document state
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastAccessed time.Time
	DocumentName string
}

// Registry tracks session identity and access times.
type Registry interface {
	// Register upserts a session row, stamping both timestamps to now.
	Register(ctx context.Context, id, documentName string) error

	// Touch refreshes last_accessed. Returns ErrNotFound for an unknown id.
	Touch(ctx context.Context, id string) error

	// ListExpired returns sessions whose last access is older than now-ttl.
	ListExpired(ctx context.Context, now time.Time, ttl time.Duration) ([]Session, error)

	// Remove deletes the session row. Removing an unknown id is a no-op.
	Remove(ctx context.Context, id string) error

	// Count reports the number of registered sessions.
	Count(ctx context.Context) (int, error)
}
