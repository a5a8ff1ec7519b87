package toxicity

import "sync"

// resultCache is a bounded map from exact message text to classification
// result. Eviction is insertion-order, not LRU: reproducibility of eviction
// order matters more than hit rate here.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]Result
	order    []string
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &resultCache{
		capacity: capacity,
		entries:  make(map[string]Result, capacity),
	}
}

func (c *resultCache) Get(text string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[text]
	return res, ok
}

func (c *resultCache) Put(text string, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[text]; ok {
		c.entries[text] = res
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[text] = res
	c.order = append(c.order, text)
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
