package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process Registry for single-process deployments
// and tests. The Postgres implementation lives in internal/db.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]Session)}
}

// Register upserts the session, stamping both timestamps
func (r *MemoryRegistry) Register(_ context.Context, id, documentName string) error {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = Session{
		ID:           id,
		CreatedAt:    now,
		LastAccessed: now,
		DocumentName: documentName,
	}
	return nil
}

// Touch refreshes last_accessed
func (r *MemoryRegistry) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.LastAccessed = time.Now()
	r.sessions[id] = sess
	return nil
}

// ListExpired returns sessions idle longer than ttl
func (r *MemoryRegistry) ListExpired(_ context.Context, now time.Time, ttl time.Duration) ([]Session, error) {
	cutoff := now.Add(-ttl)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var expired []Session
	for _, sess := range r.sessions {
		if sess.LastAccessed.Before(cutoff) {
			expired = append(expired, sess)
		}
	}
	return expired, nil
}

// Remove deletes the session row
func (r *MemoryRegistry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Count reports the number of registered sessions
func (r *MemoryRegistry) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

// setLastAccessed backdates a session for expiry tests
func (r *MemoryRegistry) setLastAccessed(id string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		sess.LastAccessed = t
		r.sessions[id] = sess
	}
}
