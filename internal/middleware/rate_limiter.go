package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type RateLimiterConfig struct {
	RPS   float64
	Burst int
	// IdleTTL drops the limiter of a client that has been quiet this long
	IdleTTL time.Duration
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	config  RateLimiterConfig
	clients *cache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RPS <= 0 {
		config.RPS = 10
	}
	if config.Burst <= 0 {
		config.Burst = 20
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		config:  config,
		clients: cache.New(config.IdleTTL, config.IdleTTL),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, found := rl.clients.Get(key); found {
		rl.clients.Set(key, l, cache.DefaultExpiration)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)
	// Add fails if another request created it first
	if err := rl.clients.Add(key, l, cache.DefaultExpiration); err != nil {
		if existing, found := rl.clients.Get(key); found {
			return existing.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorBody{
				Status:  "error",
				Code:    "rate_limited",
				Message: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
