package tickarray

import (
	"context"
	"sync"

	"whirlpoolQuote/internal/model"
)

// Cache is a read-through Fetcher keyed by array start index. It is safe for
// concurrent use; failed fetches are not cached.
type Cache struct {
	next    Fetcher
	spacing uint16

	mu     sync.RWMutex
	arrays map[int32]*model.TickArray
}

func NewCache(next Fetcher, spacing uint16) *Cache {
	return &Cache{next: next, spacing: spacing, arrays: make(map[int32]*model.TickArray)}
}

func (c *Cache) FetchTickArray(ctx context.Context, tickIndex int32) (*model.TickArray, error) {
	start := StartIndex(tickIndex, c.spacing)
	c.mu.RLock()
	array, ok := c.arrays[start]
	c.mu.RUnlock()
	if ok {
		return array, nil
	}

	array, err := c.next.FetchTickArray(ctx, tickIndex)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.arrays[start] = array
	c.mu.Unlock()
	return array, nil
}

// Set primes the cache, e.g. from a batched fetch.
func (c *Cache) Set(array *model.TickArray) {
	c.mu.Lock()
	c.arrays[array.StartTickIndex] = array
	c.mu.Unlock()
}

// Len reports how many arrays are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.arrays)
}
