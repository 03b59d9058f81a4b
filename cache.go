package depot

import (
	"github.com/TheBitDrifter/depot/internal/assert"
	"github.com/kelindar/bitmap"
)

// cacheEntry is the memoized result of one signature.
type cacheEntry struct {
	types    []TypeID // Canonical: ascending, no duplicates
	entities []Entity // Ascending
	columns  [][]any  // columns[i][j] is the types[i] record of entities[j]
}

// column returns the index of id in the entry's canonical types.
func (ce *cacheEntry) column(id TypeID) int {
	for i, t := range ce.types {
		if t == id {
			return i
		}
	}
	return -1
}

// queryCache memoizes query results by signature. reverse maps every type id to the
// cached signatures that include it and is kept in exact sync with entries.
type queryCache struct {
	entries     map[Signature]*cacheEntry
	reverse     []map[Signature]struct{}
	maxCapacity int // 0 means unbounded

	hits, misses, evictions int
}

func newQueryCache(maxCapacity int) *queryCache {
	return &queryCache{
		entries:     make(map[Signature]*cacheEntry),
		reverse:     make([]map[Signature]struct{}, MaxComponentTypes),
		maxCapacity: maxCapacity,
	}
}

func (c *queryCache) get(sig Signature) (*cacheEntry, bool) {
	entry, ok := c.entries[sig]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return entry, ok
}

// put stores entry under sig. It returns false, storing nothing, when the cache is full.
func (c *queryCache) put(sig Signature, entry *cacheEntry) bool {
	if _, exists := c.entries[sig]; !exists && c.maxCapacity > 0 && len(c.entries) >= c.maxCapacity {
		return false
	}
	c.entries[sig] = entry
	for _, id := range entry.types {
		if c.reverse[id] == nil {
			c.reverse[id] = make(map[Signature]struct{})
		}
		c.reverse[id][sig] = struct{}{}
	}
	return true
}

// invalidate evicts every entry whose signature includes one of the affected types and
// returns the number of evicted entries.
func (c *queryCache) invalidate(affected bitmap.Bitmap) int {
	evicted := 0
	affected.Range(func(x uint32) {
		for sig := range c.reverse[x] {
			c.evict(sig)
			evicted++
		}
		c.reverse[x] = nil
	})
	c.evictions += evicted
	return evicted
}

// evict drops sig from the entries and from the reverse set of each of its types.
func (c *queryCache) evict(sig Signature) {
	entry, ok := c.entries[sig]
	assert.That(ok, "reverse index points to an evicted signature")
	delete(c.entries, sig)
	for _, id := range entry.types {
		delete(c.reverse[id], sig)
	}
}

func (c *queryCache) Clear() {
	clear(c.entries)
	for i := range c.reverse {
		c.reverse[i] = nil
	}
}

func (c *queryCache) stats() CacheStats {
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.entries),
	}
}
