package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReclaimer mimics the service teardown: on success the session row is
// removed, on failure it is left registered for the next sweep.
type fakeReclaimer struct {
	registry *MemoryRegistry

	mu        sync.Mutex
	failFor   map[string]bool
	reclaimed []string
}

func (f *fakeReclaimer) Reclaim(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[sessionID] {
		return errors.New("teardown failed")
	}
	f.reclaimed = append(f.reclaimed, sessionID)
	return f.registry.Remove(ctx, sessionID)
}

func TestSweepReclaimsExpired(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, r.Register(ctx, "stale", "a.pdf"))
	require.NoError(t, r.Register(ctx, "fresh", "b.pdf"))
	r.setLastAccessed("stale", now.Add(-45*time.Minute))

	f := &fakeReclaimer{registry: r}
	s := NewSweeper(r, f, 30*time.Minute, time.Hour)

	assert.Equal(t, 1, s.Sweep(ctx))
	assert.Equal(t, []string{"stale"}, f.reclaimed)

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSweepRetriesFailedTeardown(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()

	require.NoError(t, r.Register(ctx, "stuck", "a.pdf"))
	r.setLastAccessed("stuck", time.Now().Add(-time.Hour))

	f := &fakeReclaimer{registry: r, failFor: map[string]bool{"stuck": true}}
	s := NewSweeper(r, f, 30*time.Minute, time.Hour)

	assert.Equal(t, 0, s.Sweep(ctx))

	// the row survives the failed sweep
	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// once teardown succeeds the retry reclaims it
	f.mu.Lock()
	f.failFor["stuck"] = false
	f.mu.Unlock()
	r.setLastAccessed("stuck", time.Now().Add(-time.Hour))

	assert.Equal(t, 1, s.Sweep(ctx))
	count, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSweepNothingExpired(t *testing.T) {
	r := NewMemoryRegistry()
	require.NoError(t, r.Register(t.Context(), "fresh", "a.pdf"))

	f := &fakeReclaimer{registry: r}
	s := NewSweeper(r, f, 30*time.Minute, time.Hour)

	assert.Equal(t, 0, s.Sweep(t.Context()))
	assert.Empty(t, f.reclaimed)
}

func TestSweeperStartStopIdempotent(t *testing.T) {
	r := NewMemoryRegistry()
	f := &fakeReclaimer{registry: r}
	s := NewSweeper(r, f, time.Minute, 10*time.Millisecond)

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	// restart after stop works
	s.Start()
	s.Stop()
}

func TestSweeperLoopReclaims(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := t.Context()

	require.NoError(t, r.Register(ctx, "stale", "a.pdf"))
	r.setLastAccessed("stale", time.Now().Add(-time.Hour))

	f := &fakeReclaimer{registry: r}
	s := NewSweeper(r, f, 30*time.Minute, 5*time.Millisecond)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		count, err := r.Count(ctx)
		return err == nil && count == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNewSweeperDefaults(t *testing.T) {
	s := NewSweeper(NewMemoryRegistry(), &fakeReclaimer{}, 0, -time.Minute)
	assert.Equal(t, 30*time.Minute, s.ttl)
	assert.Equal(t, 30*time.Minute, s.interval)
}
