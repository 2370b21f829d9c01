package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// Reclaimer tears down one session's state across all stores. Each step is
// idempotent; a failed teardown leaves the session registered so the next
// sweep retries it.
type Reclaimer interface {
	Reclaim(ctx context.Context, sessionID string) error
}

// Sweeper periodically reclaims expired sessions in the background,
// independent of request handling.
type Sweeper struct {
	registry  Registry
	reclaimer Reclaimer
	ttl       time.Duration
	interval  time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewSweeper creates a sweeper. Non-positive durations fall back to 30m.
func NewSweeper(registry Registry, reclaimer Reclaimer, ttl, interval time.Duration) *Sweeper {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Sweeper{
		registry:  registry,
		reclaimer: reclaimer,
		ttl:       ttl,
		interval:  interval,
	}
}

// Start launches the sweep loop. Starting an already-running sweeper reuses
// the existing schedule.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
	log.Printf("sweeper: started, interval %s, ttl %s", s.interval, s.ttl)
}

// Stop shuts the sweep loop down and waits for an in-flight sweep to finish.
// Stopping a sweeper that is not running is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("sweeper: stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep reclaims every currently expired session and reports how many were
// fully torn down. Per-session failures are logged and do not abort the
// batch; no lock is held across the batch.
func (s *Sweeper) Sweep(ctx context.Context) int {
	expired, err := s.registry.ListExpired(ctx, time.Now(), s.ttl)
	if err != nil {
		log.Printf("sweeper: failed to list expired sessions: %v", err)
		return 0
	}

	reclaimed := 0
	for _, sess := range expired {
		if err := s.reclaimer.Reclaim(ctx, sess.ID); err != nil {
			log.Printf("sweeper: failed to reclaim session %s: %v", sess.ID, err)
			continue
		}
		log.Printf("sweeper: reclaimed expired session %s", sess.ID)
		reclaimed++
	}

	if reclaimed > 0 {
		log.Printf("sweeper: reclaimed %d expired sessions", reclaimed)
	}
	return reclaimed
}
