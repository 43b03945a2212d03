package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{"burst allows initial requests", 1, 3, 3, 3},
		{"exceeding burst blocks", 1, 2, 5, 2},
		{"zero rps is unlimited", 0, 1, 50, 50},
		{"burst is at least one", 1, 0, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)

			passed := 0
			for range tt.calls {
				if rl.Allow("books") {
					passed++
				}
			}

			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := New(1, 1)

	assert.True(t, rl.Allow("books"))
	assert.False(t, rl.Allow("books"))
	assert.True(t, rl.Allow("members"))
	assert.Len(t, rl.limiters, 2)
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(10, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "posts"))
	assert.Less(t, time.Since(start), 50*time.Millisecond, "first Wait should be immediate")

	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "posts"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "second Wait should be throttled")
}

func TestKeyedRateLimiter_WaitCanceled(t *testing.T) {
	rl := New(0.1, 1)
	require.True(t, rl.Allow("borrows"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, rl.Wait(ctx, "borrows"))
}
