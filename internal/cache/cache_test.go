package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "snapshot:project:42:w1", Key("snapshot", "project", "42", "w1"))
	assert.Equal(t, "stats:", Key("stats", ""))
}

func TestPutAndGet(t *testing.T) {
	c := New()
	c.Put("k", "payload", time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "payload", got)
}

func TestGetMissing(t *testing.T) {
	c := New()
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestPutIgnoresNonPositiveTTL(t *testing.T) {
	c := New()
	c.Put("k", "v", 0)
	c.Put("k2", "v", -time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
	_, ok = c.Get("k2")
	assert.False(t, ok)
}

func TestExpiryBoundary(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }

	c.Put("k", "v", time.Minute)

	// One instant before the TTL elapses the entry is a hit.
	c.now = func() time.Time { return now.Add(time.Minute - time.Nanosecond) }
	_, ok := c.Get("k")
	assert.True(t, ok)

	// At exactly the TTL the entry is a miss.
	c.now = func() time.Time { return now.Add(time.Minute) }
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestExpiredEntryEvictedLazily(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }

	c.Put("k", "v", time.Second)
	c.now = func() time.Time { return now.Add(2 * time.Second) }

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.GetStats().TotalEntries)
}

func TestPerEntryTTL(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }

	c.Put("short", "v", 15*time.Minute)
	c.Put("long", "v", 30*time.Minute)

	c.now = func() time.Time { return now.Add(20 * time.Minute) }
	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("long")
	assert.True(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c := New()
	c.Put("snapshot:project:1:w", "a", time.Minute)
	c.Put("snapshot:project:2:w", "b", time.Minute)
	c.Put("trend:project:1:w", "c", time.Minute)

	removed := c.Invalidate("snapshot:")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("trend:project:1:w")
	assert.True(t, ok)
	_, ok = c.Get("snapshot:project:1:w")
	assert.False(t, ok)
}

func TestClearAll(t *testing.T) {
	c := New()
	c.Put("a", 1, time.Minute)
	c.Put("b", 2, time.Minute)

	c.ClearAll()
	assert.Equal(t, 0, c.GetStats().TotalEntries)
}

func TestCleanup(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }

	c.Put("live", "v", time.Hour)
	c.Put("dead1", "v", time.Second)
	c.Put("dead2", "v", time.Second)

	c.now = func() time.Time { return now.Add(time.Minute) }
	removed := c.Cleanup()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.GetStats().TotalEntries)
}

func TestGetStatsCountsExpiredWithoutEvicting(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }

	c.Put("live", "v", time.Hour)
	c.Put("dead", "v", time.Second)

	c.now = func() time.Time { return now.Add(time.Minute) }
	stats := c.GetStats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
}

func TestOverwriteRefreshesEntry(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }

	c.Put("k", "old", time.Second)
	c.now = func() time.Time { return now.Add(900 * time.Millisecond) }
	c.Put("k", "new", time.Second)

	c.now = func() time.Time { return now.Add(1500 * time.Millisecond) }
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := Key("op", fmt.Sprintf("%d", j%20))
				switch j % 4 {
				case 0:
					c.Put(key, j, time.Minute)
				case 1:
					c.Get(key)
				case 2:
					c.Invalidate("op:1")
				default:
					c.GetStats()
				}
			}
		}(i)
	}
	wg.Wait()
}
