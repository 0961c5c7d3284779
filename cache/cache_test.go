package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPutGet(t *testing.T) {
	m := NewMemory(0)

	_, ok := m.Get("missing")
	assert.False(t, ok)

	m.Put("summary:1", "a short summary", time.Minute)
	v, ok := m.Get("summary:1")
	require.True(t, ok)
	assert.Equal(t, "a short summary", v)

	// a later Put overwrites
	m.Put("summary:1", "a better summary", time.Minute)
	v, ok = m.Get("summary:1")
	require.True(t, ok)
	assert.Equal(t, "a better summary", v)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(0)

	m.Put("summary:1", "ephemeral", 10*time.Millisecond)
	_, ok := m.Get("summary:1")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = m.Get("summary:1")
	assert.False(t, ok)
}

func TestMemoryForget(t *testing.T) {
	m := NewMemory(0)

	m.Put("summary:1", "stale", time.Minute)
	m.Forget("summary:1")
	_, ok := m.Get("summary:1")
	assert.False(t, ok)

	// forgetting a missing key is a no-op
	m.Forget("summary:2")
}

func TestMemorySweeper(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	defer m.Stop()

	m.Put("summary:1", "ephemeral", 5*time.Millisecond)
	m.Put("summary:2", "durable", time.Minute)

	assert.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		_, present := m.entries["summary:1"]
		return !present
	}, time.Second, 5*time.Millisecond)

	_, ok := m.Get("summary:2")
	assert.True(t, ok)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory(0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("summary:%d", i%3)
			m.Put(key, i, time.Minute)
			m.Get(key)
			m.Forget(key)
		}(i)
	}
	wg.Wait()
}
