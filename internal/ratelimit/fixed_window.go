package ratelimit

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/pagelift/pagelift/internal/clock"
)

// Profile configures the fixed-window budget applied to one operation class.
type Profile struct {
	Window      time.Duration
	MaxRequests int
}

// Decision is the outcome of a rate check. Denial is an expected result,
// never an error.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

const shardCount = 64

// FixedWindowLimiter counts requests per (client, operation class) key in
// fixed, non-overlapping windows. The map is sharded by key hash so requests
// on different keys do not contend.
//
// Fixed windows admit up to 2x MaxRequests across a window boundary. That
// burst is an accepted property of the algorithm, chosen for its O(1) state
// per key, not a bug.
type FixedWindowLimiter struct {
	shards [shardCount]limiterShard
	clk    clock.Clock
}

type limiterShard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	windowStart time.Time
	count       int
}

// NewFixedWindowLimiter returns an empty limiter. Buckets are process-local
// advisory state, reset on restart.
func NewFixedWindowLimiter(clk clock.Clock) *FixedWindowLimiter {
	l := &FixedWindowLimiter{clk: clk}
	for i := range l.shards {
		l.shards[i].buckets = make(map[string]*bucket)
	}
	return l
}

// Check admits or rejects one request for the given client and class.
// The first request in a window always passes; ResetAt reports when the
// current window closes so denied callers know when to retry.
func (l *FixedWindowLimiter) Check(clientID, class string, p Profile) Decision {
	key := bucketKey(clientID, class)
	now := l.clk.Now()

	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.Sub(b.windowStart) >= p.Window {
		s.buckets[key] = &bucket{windowStart: now, count: 1}
		return Decision{
			Allowed:   true,
			Remaining: p.MaxRequests - 1,
			ResetAt:   now.Add(p.Window),
		}
	}

	b.count++
	remaining := p.MaxRequests - b.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   b.count <= p.MaxRequests,
		Remaining: remaining,
		ResetAt:   b.windowStart.Add(p.Window),
	}
}

// PruneStale drops buckets whose window closed before the retention cutoff.
// Purely a memory hygiene pass; Check resets stale buckets on its own.
func (l *FixedWindowLimiter) PruneStale(retention time.Duration) int {
	now := l.clk.Now()
	removed := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for key, b := range s.buckets {
			if now.Sub(b.windowStart) >= retention {
				delete(s.buckets, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (l *FixedWindowLimiter) shard(key string) *limiterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}

func bucketKey(clientID, class string) string {
	return strings.TrimSpace(clientID) + "|" + strings.TrimSpace(class)
}
