package descriptor

type cacheKey struct {
	mol string
	key Key
}

// CacheStats summarises cache traffic.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache memoises resolved values per (molecule ID, descriptor key). A hit
// returns the stored value itself, so pointer intermediates are shared by
// every consumer.
//
// A Cache has a single writer: it is not safe for concurrent use. Create one
// per molecule session and discard it afterwards.
type Cache struct {
	entries map[cacheKey]interface{}
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]interface{})}
}

// Get looks up the value for k computed on molecule molID.
func (c *Cache) Get(molID string, k Key) (interface{}, bool) {
	v, ok := c.entries[cacheKey{mol: molID, key: k}]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores v for k on molecule molID.
func (c *Cache) Put(molID string, k Key, v interface{}) {
	c.entries[cacheKey{mol: molID, key: k}] = v
}

// Len returns the number of stored entries.
func (c *Cache) Len() int { return len(c.entries) }

func (c *Cache) Stats() CacheStats {
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

// Reset drops every entry and counter.
func (c *Cache) Reset() {
	c.entries = make(map[cacheKey]interface{})
	c.hits, c.misses = 0, 0
}

//Personal.AI order the ending
