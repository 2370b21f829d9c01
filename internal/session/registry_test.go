package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistryRegisterAndTouch(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()

	require.NoError(t, r.Register(ctx, "s1", "resume.pdf"))

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, r.Touch(ctx, "s1"))
	assert.ErrorIs(t, r.Touch(ctx, "unknown"), ErrNotFound)
}

func TestMemoryRegistryRegisterUpserts(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()

	require.NoError(t, r.Register(ctx, "s1", "first.pdf"))
	r.setLastAccessed("s1", time.Now().Add(-time.Hour))
	require.NoError(t, r.Register(ctx, "s1", "second.pdf"))

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// re-registering stamps fresh timestamps
	expired, err := r.ListExpired(ctx, time.Now(), 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestMemoryRegistryListExpired(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()
	now := time.Now()
	ttl := 30 * time.Minute

	require.NoError(t, r.Register(ctx, "stale", "a.pdf"))
	require.NoError(t, r.Register(ctx, "fresh", "b.pdf"))
	r.setLastAccessed("stale", now.Add(-31*time.Minute))
	r.setLastAccessed("fresh", now.Add(-29*time.Minute))

	expired, err := r.ListExpired(ctx, now, ttl)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "stale", expired[0].ID)
}

func TestMemoryRegistryTouchDefersExpiry(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, r.Register(ctx, "s1", "a.pdf"))
	r.setLastAccessed("s1", now.Add(-31*time.Minute))
	require.NoError(t, r.Touch(ctx, "s1"))

	expired, err := r.ListExpired(ctx, now, 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestMemoryRegistryRemove(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()

	require.NoError(t, r.Register(ctx, "s1", "a.pdf"))
	require.NoError(t, r.Remove(ctx, "s1"))
	require.NoError(t, r.Remove(ctx, "s1"))

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.ErrorIs(t, r.Touch(ctx, "s1"), ErrNotFound)
}
