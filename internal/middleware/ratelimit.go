package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/techsynergy/campus-backend/internal/response"
)

// RateLimiter counts requests per client IP in fixed windows kept in Redis,
// so every API instance shares the same budget.
type RateLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit requests per window for each IP (e.g. 10 per minute).
func NewRateLimiter(rdb *redis.Client, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, scope: scope, limit: limit, window: window, now: time.Now}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
// Requests are let through when Redis is unavailable.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		slot := rl.now().UnixNano() / int64(rl.window)
		key := fmt.Sprintf("ratelimit:%s:%s:%d", rl.scope, c.ClientIP(), slot)

		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.window)
		if _, err := pipe.Exec(ctx); err != nil {
			_ = c.Error(fmt.Errorf("rate limit: %w", err))
			c.Next()
			return
		}

		count := int(incr.Val())
		remaining := max(rl.limit-count, 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > rl.limit {
			reset := time.Duration(slot+1)*rl.window - time.Duration(rl.now().UnixNano())
			c.Header("Retry-After", strconv.Itoa(int(reset.Seconds())+1))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
