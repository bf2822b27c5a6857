package graph

import (
	"sync"
	"sync/atomic"
)

// CacheStats is a read of AdjacencyCache's counters.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

// adjacencyCache holds per-node outgoing or incoming neighbor id lists
// in canonical fetch order, with hit/miss accounting. It is safe for
// concurrent reads and serializes writes, per SPEC_FULL.md §5.
type adjacencyCache struct {
	mu      sync.RWMutex
	entries map[int64][]int64
	hits    atomic.Int64
	misses  atomic.Int64
}

func newAdjacencyCache() *adjacencyCache {
	return &adjacencyCache{entries: make(map[int64][]int64)}
}

// get returns the cached id list for id and whether it was present,
// incrementing hits or misses accordingly.
func (c *adjacencyCache) get(id int64) ([]int64, bool) {
	c.mu.RLock()
	ids, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ids, ok
}

// insert replaces the cached id list for id.
func (c *adjacencyCache) insert(id int64, ids []int64) {
	c.mu.Lock()
	c.entries[id] = ids
	c.mu.Unlock()
}

// remove drops the cached entry for id, if present.
func (c *adjacencyCache) remove(id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// bulkRemove drops cached entries for every id in ids.
func (c *adjacencyCache) bulkRemove(ids []int64) {
	c.mu.Lock()
	for _, id := range ids {
		delete(c.entries, id)
	}
	c.mu.Unlock()
}

// clear resets the cache to empty and zeroes the hit/miss counters.
// Every Store mutation calls clear on both the outgoing and incoming
// caches: a simple, globally-correct invalidation policy traded
// deliberately for per-row precision, per SPEC_FULL.md §5.
func (c *adjacencyCache) clear() {
	c.mu.Lock()
	c.entries = make(map[int64][]int64)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// stats returns a snapshot of the cache's counters.
func (c *adjacencyCache) stats() CacheStats {
	c.mu.RLock()
	n := int64(len(c.entries))
	c.mu.RUnlock()
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: n,
	}
}

// AdjacencyCacheStats reports combined outgoing+incoming cache counters
// for the store, matching the "adjacency cache" the Store owns per
// SPEC_FULL.md §3's ownership note.
type AdjacencyCacheStats struct {
	Outgoing CacheStats
	Incoming CacheStats
}

// CacheStats returns the current outgoing/incoming adjacency cache
// counters.
func (s *Store) CacheStats() AdjacencyCacheStats {
	return AdjacencyCacheStats{
		Outgoing: s.outCache.stats(),
		Incoming: s.inCache.stats(),
	}
}

// invalidateCaches clears both adjacency caches. Called by every
// mutating Store operation per the invariant in SPEC_FULL.md §4.1/§4.2.
func (s *Store) invalidateCaches() {
	s.outCache.clear()
	s.inCache.clear()
}

// InvalidateCaches is the exported form of invalidateCaches, for
// packages (BulkTxn, Recovery, Reindex) that mutate graph_* tables
// directly through Store.DB() inside their own transactions and must
// invalidate the cache themselves after commit.
func (s *Store) InvalidateCaches() {
	s.invalidateCaches()
}
