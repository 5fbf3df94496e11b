// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"dairy-subscription-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit caps requests per authenticated customer. MUST be used after
// Auth(). The limiter failing lets the request through.
func RateLimit(limiter Limiter, limit int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP()
		if id, ok := GetIdentityID(c); ok {
			key = strconv.FormatInt(id, 10)
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		c.Next()
	}
}
