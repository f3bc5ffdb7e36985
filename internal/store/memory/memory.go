// Package memory is an in-process report cache for single-node runs
// where Redis is not configured.
package memory

import (
	"context"
	"sync"
	"time"

	"signalscan/internal/scanner"
)

type entry struct {
	cachedAt time.Time
	report   *scanner.Report
}

// Cache implements scanner.ResultCache with a plain map. Stale entries
// are overwritten on Put and ignored on Get; there is no background
// eviction.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time // stubbed in tests
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

func (c *Cache) Get(_ context.Context, key string, maxAge time.Duration) (*scanner.Report, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.cachedAt) > maxAge {
		return nil, false
	}
	return e.report, true
}

func (c *Cache) Put(_ context.Context, key string, rep *scanner.Report) error {
	c.mu.Lock()
	c.entries[key] = entry{cachedAt: c.now(), report: rep}
	c.mu.Unlock()
	return nil
}
