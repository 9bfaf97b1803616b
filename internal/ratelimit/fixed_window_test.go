package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/clock"
)

func newTestLimiter() (*FixedWindowLimiter, *clock.FakeClock) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewFixedWindowLimiter(clk), clk
}

func TestFirstMRequestsAllowedThenDenied(t *testing.T) {
	l, _ := newTestLimiter()
	p := Profile{Window: time.Minute, MaxRequests: 5}

	for i := 0; i < 5; i++ {
		d := l.Check("1.2.3.4", "mutation", p)
		require.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 4-i, d.Remaining)
	}

	d := l.Check("1.2.3.4", "mutation", p)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestResetAtIsWindowStartPlusWindow(t *testing.T) {
	l, clk := newTestLimiter()
	p := Profile{Window: time.Minute, MaxRequests: 5}

	start := clk.Now()
	for i := 0; i < 6; i++ {
		d := l.Check("1.2.3.4", "mutation", p)
		assert.Equal(t, start.Add(time.Minute), d.ResetAt)
		clk.Advance(time.Second)
	}
}

func TestNewWindowResetsCounter(t *testing.T) {
	l, clk := newTestLimiter()
	p := Profile{Window: time.Minute, MaxRequests: 2}

	require.True(t, l.Check("c", "read", p).Allowed)
	require.True(t, l.Check("c", "read", p).Allowed)
	require.False(t, l.Check("c", "read", p).Allowed)

	clk.Advance(time.Minute)

	d := l.Check("c", "read", p)
	require.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, clk.Now().Add(time.Minute), d.ResetAt)
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()
	p := Profile{Window: time.Minute, MaxRequests: 1}

	require.True(t, l.Check("a", "mutation", p).Allowed)
	require.False(t, l.Check("a", "mutation", p).Allowed)

	// Same client, different class.
	assert.True(t, l.Check("a", "read", p).Allowed)
	// Different client, same class.
	assert.True(t, l.Check("b", "mutation", p).Allowed)
}

func TestConcurrentChecksNeverOveradmit(t *testing.T) {
	l, _ := newTestLimiter()
	p := Profile{Window: time.Minute, MaxRequests: 50}

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Check("shared", "mutation", p).Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 50, count)
}

func TestPruneStale(t *testing.T) {
	l, clk := newTestLimiter()
	p := Profile{Window: time.Minute, MaxRequests: 5}

	l.Check("old", "read", p)
	clk.Advance(2 * time.Hour)
	l.Check("fresh", "read", p)

	removed := l.PruneStale(time.Hour)
	assert.Equal(t, 1, removed)

	// The fresh bucket still counts within its window.
	d := l.Check("fresh", "read", p)
	assert.Equal(t, 3, d.Remaining)
}
