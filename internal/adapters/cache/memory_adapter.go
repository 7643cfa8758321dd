package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
)

// MemoryAdapter implements CacheProvider with a bounded, expiring LRU.
// It is the default insight cache backend; nothing survives a restart.
type MemoryAdapter struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryAdapter creates an in-memory cache holding at most maxEntries
// values, each expiring after ttl. The per-call expiration passed to Set is
// ignored: the LRU applies one TTL cache-wide.
func NewMemoryAdapter(maxEntries int, ttl time.Duration) *MemoryAdapter {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	return &MemoryAdapter{
		lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := a.lru.Get(key)
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return value, nil
}

// Set stores a value in cache
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, _ int) error {
	a.lru.Add(key, value)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.lru.Remove(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	return a.lru.Contains(key), nil
}

// Len reports how many entries are currently cached.
func (a *MemoryAdapter) Len() int {
	return a.lru.Len()
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)
var _ providers.CacheSizer = (*MemoryAdapter)(nil)
