package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps sessions in process memory. It is the default backend
// for single-instance deployments and for tests; switch to Redis when the
// portal runs behind more than one replica, since sessions stored here do
// not survive a restart.
type MemoryCache struct {
	entries map[string]*memoryEntry
	mu      sync.RWMutex
	done    chan struct{}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache starts a janitor goroutine that evicts expired sessions
// once a minute. Call Close to stop it.
func NewMemoryCache() *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		done:    make(chan struct{}),
	}

	go mc.janitor()

	return mc
}

func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	entry, ok := mc.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		// Expired entries report not-found immediately; the janitor
		// reclaims the memory on its next sweep.
		return nil, ErrNotFound
	}

	valueCopy := make([]byte, len(entry.value))
	copy(valueCopy, entry.value)
	return valueCopy, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	mc.entries[key] = &memoryEntry{
		value:     valueCopy,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.entries, key)
	return nil
}

func (mc *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	entry, ok := mc.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return false, nil
	}

	return true, nil
}

func (mc *MemoryCache) Close() error {
	close(mc.done)
	return nil
}

func (mc *MemoryCache) janitor() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.sweep()
		case <-mc.done:
			return
		}
	}
}

func (mc *MemoryCache) sweep() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	for key, entry := range mc.entries {
		if now.After(entry.expiresAt) {
			delete(mc.entries, key)
		}
	}
}
