package middleware

import (
	"net/http" // HTTP status codes
	"sync"     // Visitor map lock
	"time"     // Idle pruning

	"github.com/gin-gonic/gin" // Gin framework
	"golang.org/x/time/rate"   // Token bucket limiter
)

const limiterIdleTTL = 10 * time.Minute // Forget IPs idle for this long

type visitor struct {
	limiter  *rate.Limiter // Token bucket of one IP
	lastSeen time.Time     // Last request time
}

// RateLimiter hands out one token bucket per client IP
type RateLimiter struct {
	mu        sync.Mutex          // Guards visitors and lastPrune
	visitors  map[string]*visitor // Buckets by client IP
	limit     rate.Limit          // Refill rate per second
	burst     int                 // Bucket size
	lastPrune time.Time           // Last idle sweep
	now       func() time.Time    // Clock, replaced in tests
}

// NewRateLimiter allows perMinute requests per client IP, refilled evenly over the minute
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		visitors: map[string]*visitor{},
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Allow reports whether ip may make a request now
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > time.Minute { // Sweep idle IPs at most once a minute
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastPrune = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)} // New IPs start with a full bucket
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects requests beyond the per-IP budget with 429
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			msg := "Too many requests, try again later" // Same text in message and error
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limited",
				"message": msg,
				"error":   msg,
			})
			return // Stop before the handler runs
		}
		c.Next()
	}
}
