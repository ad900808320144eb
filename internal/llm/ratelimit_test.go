package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstUpToCapacity(t *testing.T) {
	rl := newRateLimiter(10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.tryAcquire(), "token %d should be available", i)
	}
	assert.False(t, rl.tryAcquire(), "bucket should be empty after capacity acquires")
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	// 6000/min = 100/sec, so a short sleep refills several tokens.
	rl := newRateLimiter(6000)
	for rl.tryAcquire() {
	}

	time.Sleep(50 * time.Millisecond)
	assert.True(t, rl.tryAcquire())
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	rl := newRateLimiter(1)
	require.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterDefaultsCapacity(t *testing.T) {
	rl := newRateLimiter(0)
	assert.Equal(t, float64(60), rl.capacity)
}
