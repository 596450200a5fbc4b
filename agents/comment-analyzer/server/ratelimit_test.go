package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiterPerIP(t *testing.T) {
	l := newIPRateLimiter(0.001, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// separate bucket per IP
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.active())
}

func TestIPRateLimiterDisabled(t *testing.T) {
	l := newIPRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.Equal(t, 0, l.active())
}

func TestIPRateLimiterCleanup(t *testing.T) {
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	l := newIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }
	l.cleanupAt = now.Add(limiterCleanupInterval)

	l.Allow("10.0.0.1")
	now = now.Add(limiterCleanupInterval + time.Second)
	l.Allow("10.0.0.2")
	assert.Equal(t, 2, l.active(), "idle limiter kept until idle timeout")

	now = now.Add(limiterIdleTimeout)
	l.Allow("10.0.0.2")
	assert.Equal(t, 1, l.active())
}
