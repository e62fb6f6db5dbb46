package propshape

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the number of planned shapes kept in memory.
const DefaultCacheSize = 4096

// Cache memoizes storage plans by shape key. A nil plan is cached like any
// other. Concurrent misses on one key compute once.
type Cache struct {
	plans *lru.Cache[string, *Storable]
	group singleflight.Group
}

// NewCache creates a cache holding at most size plans.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	plans, err := lru.New[string, *Storable](size)
	if err != nil {
		return nil, err
	}
	return &Cache{plans: plans}, nil
}

// Get returns the cached plan for key, computing it on a miss.
func (c *Cache) Get(key string, compute func() *Storable) *Storable {
	if plan, ok := c.plans.Get(key); ok {
		return plan
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		if plan, ok := c.plans.Get(key); ok {
			return plan, nil
		}
		plan := compute()
		c.plans.Add(key, plan)
		return plan, nil
	})
	return v.(*Storable)
}

func (c *Cache) Len() int { return c.plans.Len() }

// Purge drops every plan, e.g. after the alter hook changed.
func (c *Cache) Purge() { c.plans.Purge() }
