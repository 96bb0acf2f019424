package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultSize = 10000

	maxCleanupInterval = 10 * time.Minute
)

// Memory is an in-process cache on go-cache. It holds at most capacity codes:
// once full, expired entries are swept and new codes are not admitted until
// there is room again. Codes already present are always updated.
type Memory struct {
	capacity int
	items    *gocache.Cache
	mu       sync.Mutex
}

// NewMemory returns a cache holding at most size entries. ttl <= 0 disables expiry.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = defaultSize
	}

	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = min(ttl, maxCleanupInterval)
	}

	return &Memory{
		capacity: size,
		items:    gocache.New(expiration, cleanup),
	}
}

func (m *Memory) Get(_ context.Context, code string) (string, error) {
	v, ok := m.items.Get(code)
	if !ok {
		return "", ErrMiss
	}
	url, ok := v.(string)
	if !ok {
		return "", ErrMiss
	}
	return url, nil
}

func (m *Memory) Set(_ context.Context, code, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items.Get(code); !ok && m.items.ItemCount() >= m.capacity {
		m.items.DeleteExpired()
		if m.items.ItemCount() >= m.capacity {
			return nil
		}
	}

	m.items.SetDefault(code, url)
	return nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.items.Delete(code)
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	m.items.Flush()
	return nil
}
