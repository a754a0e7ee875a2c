// Package idempotency remembers processed payment event ids so re-delivered
// notifications can be short-circuited before they reach the database.
//
// A Guard is only a fast path. The store's unique event id constraint stays
// the authority, so a Guard that forgets (TTL expiry, restart, eviction) is
// harmless.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// Guard records event ids that have been applied.
type Guard interface {
	// Seen reports whether eventID was marked and has not expired.
	Seen(ctx context.Context, eventID string) (bool, error)

	// Mark records eventID. Marking an id twice is not an error.
	Mark(ctx context.Context, eventID string) error
}

// sweepInterval is how many Marks pass between sweeps of expired ids.
const sweepInterval = 128

// MemoryGuard is an in-process Guard for single-instance deployments and tests.
type MemoryGuard struct {
	mu    sync.Mutex
	ttl   time.Duration
	seen  map[string]time.Time
	marks int
	now   func() time.Time
}

// NewMemoryGuard creates a MemoryGuard. A ttl of zero keeps ids forever.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (g *MemoryGuard) Seen(_ context.Context, eventID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expires, ok := g.seen[eventID]
	if !ok {
		return false, nil
	}
	if !expires.IsZero() && !g.now().Before(expires) {
		delete(g.seen, eventID)
		return false, nil
	}
	return true, nil
}

func (g *MemoryGuard) Mark(_ context.Context, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var expires time.Time
	if g.ttl > 0 {
		now := g.now()
		expires = now.Add(g.ttl)

		// Seen only evicts the id it is asked about.
		g.marks++
		if g.marks%sweepInterval == 0 {
			g.sweep(now)
		}
	}
	g.seen[eventID] = expires
	return nil
}

func (g *MemoryGuard) sweep(now time.Time) {
	for id, expires := range g.seen {
		if !expires.IsZero() && !now.Before(expires) {
			delete(g.seen, id)
		}
	}
}

// Len returns the number of tracked ids, expired ones included.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
