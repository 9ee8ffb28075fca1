package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// RateLimiter is a sliding-window counter. *redis.Client satisfies it.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// RateLimit allows limit requests per window for each user on one route.
// Anonymous callers are keyed by client IP. A nil limiter lets every request
// through, as does a limiter error.
func RateLimit(limiter RateLimiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		who := c.GetString("user_id")
		if who == "" {
			who = "ip:" + c.ClientIP()
		}

		key := fmt.Sprintf("rate_limit:%s:%s:%s", who, c.Request.Method, c.FullPath())
		allowed, wait, err := limiter.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			response.Error(c, http.StatusTooManyRequests, 10004, "too many requests, try again in a few seconds")
			c.Abort()
			return
		}

		c.Next()
	}
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(wait time.Duration) int {
	return max(1, int(math.Ceil(wait.Seconds())))
}
