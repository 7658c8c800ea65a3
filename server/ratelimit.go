package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// idleVisitorTTL is how long an address is remembered after its last request.
const idleVisitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client address. Idle entries are
// pruned on access rather than by a background goroutine.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	perMinute int
	visitors  map[string]*visitor
	lastPrune time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per address with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		perMinute: perMinute,
		visitors:  make(map[string]*visitor),
		now:       time.Now,
	}
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Len returns the number of tracked addresses.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RetryAfter is the whole number of seconds until one token is available.
func (l *RateLimiter) RetryAfter() int {
	if l.perMinute <= 0 {
		return 60
	}
	return int(math.Ceil(60.0 / float64(l.perMinute)))
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < idleVisitorTTL {
		return
	}
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleVisitorTTL {
			delete(l.visitors, key)
		}
	}
	l.lastPrune = now
}

// RateLimitMiddleware limits requests to route by client address. It is a
// no-op when rate limiting is disabled.
func (s *Server) RateLimitMiddleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if s.loginLimiter == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !s.loginLimiter.Allow(ip) {
				s.metrics.RecordRateLimited(route)
				zerolog.Ctx(r.Context()).Warn().Str("client_ip", ip).Str("route", route).Msg("rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(s.loginLimiter.RetryAfter()))
				s.renderError(w, r, http.StatusTooManyRequests, "Too many requests", "Please wait a moment before trying to sign in again.")
				return
			}
			next(w, r)
		}
	}
}

// clientIP is the host part of RemoteAddr. Behind a trusted proxy chi's
// RealIP middleware has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
