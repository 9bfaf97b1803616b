package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/clock"
)

func TestGetSetRoundTrip(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, string](clk)

	c.Set("biz|42", "hello", time.Minute)

	got, ok := c.Get("biz|42")
	require.True(t, ok)
	assert.Equal(t, "hello", got)

	_, ok = c.Get("biz|missing")
	assert.False(t, ok)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](clk)

	c.Set("k", 7, time.Minute)

	clk.Advance(59 * time.Second)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, got)

	clk.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, string](clk)

	c.Set("k", "v1", time.Minute)
	c.Set("k", "v2", time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestDeleteThenSetNeverServesOldValue(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, string](clk)

	c.Set("k", "v1", time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v2", time.Minute)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestSweepEvictsOnlyExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](clk)

	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)

	clk.Advance(2 * time.Second)
	removed := c.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestZeroTTLIsNoop(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](clk)

	c.Set("k", 1, 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestConcurrentAccessDistinctKeys(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](clk)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			for j := 0; j < 100; j++ {
				c.Set(key, j, time.Minute)
				got, ok := c.Get(key)
				if ok && got != j {
					t.Errorf("key %s: got %d, want %d", key, got, j)
				}
				if j%10 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "business|42", Key("Business", " 42 "))
	assert.Equal(t, "a|b", Key("a", "", "b"))
	assert.Equal(t, "", Key())
}
