package server

import "time"

// SetRateLimiterClock replaces the limiter's time source.
func SetRateLimiterClock(l *RateLimiter, now func() time.Time) {
	l.now = now
}
