package server_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/knowledge-hub/server"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_PerAddressBuckets(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	l := server.NewRateLimiter(6, 2) // one token every 10s
	server.SetRateLimiterClock(l, clock.Now)

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	require.True(t, l.Allow("10.0.0.2"), "other addresses are independent")

	clock.Advance(11 * time.Second)
	require.True(t, l.Allow("10.0.0.1"), "token refilled")
	require.False(t, l.Allow("10.0.0.1"))

	require.Equal(t, 10, l.RetryAfter())
}

func TestRateLimiter_PrunesIdleAddresses(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	l := server.NewRateLimiter(30, 5)
	server.SetRateLimiterClock(l, clock.Now)

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	require.Equal(t, 2, l.Len())

	clock.Advance(11 * time.Minute)
	l.Allow("10.0.0.3")
	require.Equal(t, 1, l.Len())
}

func TestRateLimiter_MinimumBurst(t *testing.T) {
	l := server.NewRateLimiter(60, 0)
	require.True(t, l.Allow("10.0.0.1"))
}
