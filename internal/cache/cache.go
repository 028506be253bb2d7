package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/tenderhub/internal/utils"
)

// Store is the TTL cache used for the public project list and dashboard stats.
// Values are opaque bytes so the same callers work against the local map and Redis.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	DeletePrefix(ctx context.Context, prefix string)
}

type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

// GetJSON decodes a cached value into T. A decode failure counts as a miss.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool) {
	var out T
	b, ok := s.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, false
	}
	return out, true
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.Set(ctx, key, b, ttl)
}

// InvalidateListings drops every cached project page and the dashboard counters.
// Called after any write that changes a project's status or bid count.
func InvalidateListings(ctx context.Context, s Store) {
	if s == nil {
		return
	}
	s.DeletePrefix(ctx, utils.ProjectsCachePrefix)
	s.DeletePrefix(ctx, utils.DashboardStatsKey)
}
