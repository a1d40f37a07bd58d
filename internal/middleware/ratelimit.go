package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/careloop/booking-api/pkg/httputil"
)

type rateLimiter struct {
	sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter limits requests per client IP using a token bucket.
func NewRateLimiter(perSecond float64, burst int) *rateLimiter {
	rl := &rateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)

		rl.Lock()
		for ip, entry := range rl.limiters {
			if time.Since(entry.lastSeen) > 3*time.Minute {
				delete(rl.limiters, ip)
			}
		}
		rl.Unlock()
	}
}

func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.Lock()
	defer rl.Unlock()

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *rateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, httputil.Response{
				Success: false,
				Error: &httputil.Error{
					Code:    http.StatusTooManyRequests,
					Message: "rate limit exceeded",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
