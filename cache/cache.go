// Package cache provides the time-boxed memoization layer in front of the AI
// capability. Entries expire on their TTL, there is no size bound: keys are
// bounded by entity count and values are small strings or lists.
package cache

import (
	"sync"
	"time"
)

// Cache is the injected key-value capability. Get, Put and Forget are
// independent per-key operations, no read-modify-write atomicity is implied:
// concurrent compute-if-absent callers may both compute, the overwrite is
// harmless because the computation is idempotent.
type Cache interface {
	Get(key string) (any, bool)
	Put(key string, value any, ttl time.Duration)
	Forget(key string)
}

type entry struct {
	value   any
	expires time.Time
}

// Memory is the in-process Cache implementation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	done    chan struct{}
	once    sync.Once
}

// NewMemory creates a memory cache that sweeps expired entries every
// sweepInterval. A non-positive interval disables the sweeper, entries then
// only expire lazily on Get.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweep(sweepInterval)
	}
	return m
}

func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		m.Forget(key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Put(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{
		value:   value,
		expires: time.Now().Add(ttl),
	}
}

func (m *Memory) Forget(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Stop terminates the background sweeper.
func (m *Memory) Stop() {
	m.once.Do(func() {
		close(m.done)
	})
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, e := range m.entries {
				if now.After(e.expires) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
