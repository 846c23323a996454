package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreateLimiter_Window(t *testing.T) {
	clock := time.Unix(1000, 0)
	rl := NewCreateLimiter(2, time.Minute)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"), "callers are limited independently")

	clock = clock.Add(61 * time.Second)
	assert.True(t, rl.Allow("u1"))
}

func TestCreateLimiter_Disabled(t *testing.T) {
	rl := NewCreateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("u1"))
	}
	var nilLimiter *CreateLimiter
	assert.True(t, nilLimiter.Allow("u1"))
}

func TestCreateLimiter_ForgetsIdleCallers(t *testing.T) {
	clock := time.Unix(1000, 0)
	rl := NewCreateLimiter(1, time.Minute)
	rl.now = func() time.Time { return clock }

	for _, key := range []string{"a", "b", "c"} {
		assert.True(t, rl.Allow(key))
	}
	assert.Len(t, rl.history, 3)

	clock = clock.Add(2 * time.Minute)
	assert.True(t, rl.Allow("d"))
	assert.Len(t, rl.history, 1)
	assert.Contains(t, rl.history, "d")
}
