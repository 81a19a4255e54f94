package slack

import (
	"sync"
	"time"
)

const (
	// Entries older than this can never verify anyway (the timestamp
	// window is 5 minutes), so they are safe to forget.
	replayTTL = 10 * time.Minute

	// Cleanup kicks in once the seen-set grows past this size.
	replayCleanupThreshold = 500
)

// ReplayGuard rejects duplicate deliveries. It is keyed by the request
// signature: a replayed delivery carries the identical signature, and a
// fresh one cannot be forged without the signing secret. Checked before
// the signature verdict is trusted.
type ReplayGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewReplayGuard creates an empty ReplayGuard.
func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{seen: make(map[string]time.Time)}
}

// IsDuplicate checks if a delivery key has already been processed.
// Returns true if duplicate, false if new (and marks it as processed).
func (g *ReplayGuard) IsDuplicate(key string) bool {
	if key == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()

	// Cleanup old entries periodically (keep map bounded).
	if len(g.seen) > replayCleanupThreshold {
		for k, ts := range g.seen {
			if now.Sub(ts) > replayTTL {
				delete(g.seen, k)
			}
		}
	}

	if _, exists := g.seen[key]; exists {
		return true
	}
	g.seen[key] = now
	return false
}
