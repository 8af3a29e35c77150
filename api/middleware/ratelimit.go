package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reviewharvest/config"
	"github.com/use-agent/reviewharvest/models"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = time.Hour
	limiterSweepTick = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet hands out one token bucket per identity.
type limiterSet struct {
	mu       sync.Mutex
	cfg      config.RateLimitConfig
	limiters map[string]*limiterEntry
}

func (s *limiterSet) get(identity string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.limiters[identity]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst),
		}
		s.limiters[identity] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops identities not seen since cutoff.
func (s *limiterSet) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, id)
		}
	}
}

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting
// middleware. A harvest holds a browser tab for minutes, so the defaults are
// far lower than for a plain API.
//
// Entries unused for an hour are evicted by a background sweep.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	set := &limiterSet{cfg: cfg, limiters: make(map[string]*limiterEntry)}

	go func() {
		ticker := time.NewTicker(limiterSweepTick)
		defer ticker.Stop()
		for now := range ticker.C {
			set.sweep(now.Add(-limiterIdleTTL))
		}
	}()

	return func(c *gin.Context) {
		// Prefer the API key set by Auth; fall back to the client IP.
		identity := c.ClientIP()
		if key, ok := c.Get(APIKeyContextKey); ok {
			identity = key.(string)
		}

		if !set.get(identity, time.Now()).Allow() {
			if cfg.RequestsPerSecond > 0 {
				retry := int(math.Ceil(1 / cfg.RequestsPerSecond))
				c.Header("Retry-After", strconv.Itoa(retry))
			}
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited,
				"rate limit exceeded, please slow down")
			return
		}

		c.Next()
	}
}
