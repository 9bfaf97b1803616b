package cache

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/pagelift/pagelift/internal/clock"
)

// Cache is a TTL'd key-value store. Keys are opaque; key construction is the
// caller's responsibility (see Key).
type Cache[K ~string, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

const shardCount = 32

// TTLCache is an in-memory Cache sharded by key hash so concurrent requests
// on different keys do not contend. Expired entries are dropped lazily on
// read and reaped by Sweep; a served entry's age never exceeds its TTL.
type TTLCache[K ~string, V any] struct {
	shards [shardCount]shard[K, V]
	clk    clock.Clock
}

type shard[K ~string, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLCache returns an empty cache. State is process-local and lost on
// restart; cached values are derived data, never a system of record.
func NewTTLCache[K ~string, V any](clk clock.Clock) *TTLCache[K, V] {
	c := &TTLCache[K, V]{clk: clk}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]entry[V])
	}
	return c
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	s := c.shard(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.clk.Now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; Set may have raced a fresh value in.
		if cur, ok := s.entries[key]; ok && c.clk.Now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores a value, overwriting any previous entry for the key.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s := c.shard(key)
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: c.clk.Now().Add(ttl)}
	s.mu.Unlock()
}

// Delete removes a key. Write paths call it before responding so the next
// read cannot observe stale data for the mutated entity.
func (c *TTLCache[K, V]) Delete(key K) {
	s := c.shard(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Sweep evicts expired entries and reports how many were removed.
func (c *TTLCache[K, V]) Sweep() int {
	now := c.clk.Now()
	removed := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for key, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len counts live entries, expired ones included until swept.
func (c *TTLCache[K, V]) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

func (c *TTLCache[K, V]) shard(key K) *shard[K, V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &c.shards[h.Sum32()%shardCount]
}

// Key joins non-empty parts into a normalized cache key.
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
