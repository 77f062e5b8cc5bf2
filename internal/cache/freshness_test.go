package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Shugur-Network/relaydex/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relay(url string) *models.Relay {
	return &models.Relay{URL: url, Name: "n", SupportedNIPs: []int{1, 11}, Seen: true}
}

func TestFreshnessCache_GetReturnsCopy(t *testing.T) {
	c := New(10, time.Hour)
	orig := relay("https://a")
	c.Set(orig.URL, orig)

	orig.Name = "changed after set"
	got, ok := c.Get("https://a")
	require.True(t, ok)
	assert.Equal(t, "n", got.Name)

	got.SupportedNIPs[0] = 42
	again, _ := c.Get("https://a")
	assert.Equal(t, []int{1, 11}, again.SupportedNIPs)
}

func TestFreshnessCache_CapacityEvictsEarliestInserted(t *testing.T) {
	c := New(500, time.Hour)
	for i := 0; i < 500; i++ {
		u := fmt.Sprintf("https://relay%d.example.com", i)
		c.Set(u, relay(u))
	}
	require.Equal(t, 500, c.Len())

	c.Set("https://relay500.example.com", relay("https://relay500.example.com"))

	assert.Equal(t, 500, c.Len())
	_, ok := c.Get("https://relay0.example.com")
	assert.False(t, ok, "earliest inserted entry is evicted")
	_, ok = c.Get("https://relay1.example.com")
	assert.True(t, ok)
	_, ok = c.Get("https://relay500.example.com")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestFreshnessCache_ResetExistingKeyDoesNotEvict(t *testing.T) {
	c := New(2, time.Hour)
	c.Set("https://a", relay("https://a"))
	c.Set("https://b", relay("https://b"))

	updated := relay("https://a")
	updated.Name = "fresh"
	c.Set("https://a", updated)

	assert.Equal(t, 2, c.Len())
	assert.Zero(t, c.Stats().Evictions)
	got, ok := c.Get("https://a")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.Name)
}

func TestFreshnessCache_ResetMovesKeyToBackOfEvictionOrder(t *testing.T) {
	c := New(2, 30*time.Millisecond)
	c.Set("https://a", relay("https://a"))
	c.Set("https://b", relay("https://b"))

	time.Sleep(60 * time.Millisecond)
	c.Set("https://a", relay("https://a"))
	c.Set("https://c", relay("https://c"))

	_, ok := c.Get("https://a")
	assert.True(t, ok, "refreshed entry survives")
	_, ok = c.Get("https://c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestFreshnessCache_PeekDoesNotCount(t *testing.T) {
	c := New(10, time.Hour)
	c.Set("https://a", relay("https://a"))

	_, ok := c.Peek("https://a")
	require.True(t, ok)
	_, ok = c.Peek("https://missing")
	require.False(t, ok)

	st := c.Stats()
	assert.Zero(t, st.Hits)
	assert.Zero(t, st.Misses)
}

func TestFreshnessCache_ExpiredEntryIsMissButKeepsSlot(t *testing.T) {
	c := New(10, 30*time.Millisecond)
	c.Set("https://a", relay("https://a"))

	_, ok := c.Get("https://a")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Get("https://a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "still physically present")

	assert.Equal(t, 1, c.DeleteExpired())
	assert.Zero(t, c.Len())
}

func TestFreshnessCache_Stats(t *testing.T) {
	c := New(10, time.Hour)
	c.Get("https://a")
	c.Set("https://a", relay("https://a"))
	c.Get("https://a")

	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, 10, s.Capacity)
}

func TestFreshnessCache_ConcurrentSetNeverExceedsCapacity(t *testing.T) {
	c := New(50, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				u := fmt.Sprintf("https://g%d-%d.example.com", g, i)
				c.Set(u, relay(u))
				assert.LessOrEqual(t, c.Len(), 50)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestFreshnessCache_RunJanitorStopsOnCancel(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	c.Set("https://a", relay("https://a"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
