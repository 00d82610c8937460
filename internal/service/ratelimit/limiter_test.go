package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	now = now.Add(time.Hour)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "refill is capped at capacity")
}

func TestLimiter_EvictsIdleFullBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(5, 0.05) // one token per 20s
	l.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		assert.True(t, l.Allow(ip))
	}
	for range 5 {
		assert.True(t, l.Allow("10.0.0.9"))
	}
	assert.Equal(t, 4, l.Len())

	now = now.Add(sweepEvery / 2)
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 4, l.Len(), "no sweep before the interval")

	now = now.Add(sweepEvery / 2)
	for range 3 {
		assert.True(t, l.Allow("10.0.0.9"))
	}
	assert.False(t, l.Allow("10.0.0.9"), "a draining bucket keeps its state across the sweep")
	assert.Equal(t, 1, l.Len(), "idle refilled buckets are dropped")

	assert.True(t, l.Allow("10.0.0.1"), "an evicted key starts full")
	assert.Equal(t, 2, l.Len())
}
