package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/models"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = time.Hour
	limiterSweepInterval = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet hands out one token bucket per caller identity.
type limiterSet struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
}

func (s *limiterSet) get(identity string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.limiters[identity]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[identity] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops identities idle since before cutoff.
func (s *limiterSet) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, id)
		}
	}
}

// RateLimit returns per-identity (API key or client IP) token-bucket rate
// limiting middleware. Idle identities are swept until ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	set := &limiterSet{
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		limiters: make(map[string]*limiterEntry),
	}

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				set.sweep(now.Add(-limiterIdleTTL))
			}
		}
	}()

	return func(c *gin.Context) {
		identity := c.GetString(ContextKeyAPIKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		now := time.Now()
		r := set.get(identity, now).ReserveN(now, 1)
		if !r.OK() || r.DelayFrom(now) > 0 {
			retryAfter := time.Second
			if r.OK() {
				retryAfter = r.DelayFrom(now)
				r.CancelAt(now)
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
