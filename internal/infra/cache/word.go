package cache

import (
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

// Read-path acceleration for word state. Entries are short-lived and
// advisory; the ledger re-checks everything under its own lock, so a stale
// entry can never authorize a write.

const (
	wordTTL         = 30 * time.Second
	cleanupInterval = 5 * time.Minute
	keyPrefix       = "spkkn:word:"
)

// MemoryWordCache is the in-process backend, used when no memcached address
// is configured.
type MemoryWordCache struct {
	cache *gocache.Cache
}

func NewMemoryWordCache() *MemoryWordCache {
	return &MemoryWordCache{
		cache: gocache.New(wordTTL, cleanupInterval),
	}
}

func (m *MemoryWordCache) Get(text string) (domain.WordState, bool) {
	x, found := m.cache.Get(text)
	if !found {
		return domain.WordState{}, false
	}
	state, ok := x.(domain.WordState)
	return state, ok
}

func (m *MemoryWordCache) Set(state domain.WordState) {
	m.cache.Set(state.Text, state, gocache.DefaultExpiration)
}

func (m *MemoryWordCache) Invalidate(text string) {
	m.cache.Delete(text)
}

// MemcachedWordCache shares the read cache between processes. Errors degrade
// to cache misses.
type MemcachedWordCache struct {
	client *memcache.Client
}

func NewMemcachedWordCache(client *memcache.Client) *MemcachedWordCache {
	return &MemcachedWordCache{client: client}
}

func (m *MemcachedWordCache) Get(text string) (domain.WordState, bool) {
	item, err := m.client.Get(keyPrefix + text)
	if err != nil {
		return domain.WordState{}, false
	}

	var state domain.WordState
	if err := json.Unmarshal(item.Value, &state); err != nil {
		return domain.WordState{}, false
	}
	return state, true
}

func (m *MemcachedWordCache) Set(state domain.WordState) {
	value, err := json.Marshal(state)
	if err != nil {
		return
	}
	_ = m.client.Set(&memcache.Item{
		Key:        keyPrefix + state.Text,
		Value:      value,
		Expiration: int32(wordTTL / time.Second),
	})
}

func (m *MemcachedWordCache) Invalidate(text string) {
	_ = m.client.Delete(keyPrefix + text)
}
