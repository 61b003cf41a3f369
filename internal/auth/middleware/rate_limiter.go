package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/iqac-backend/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig bounds anonymous upload traffic per client IP.
type RateLimiterConfig struct {
	MaxRequests   int
	WindowSeconds int
}

// RateLimiter is a Redis fixed-window limiter keyed by client IP. It is
// applied to the public upload endpoint, where each request can carry
// megabytes of payload. A limiter failure degrades open: the request is
// allowed and the error logged.
func RateLimiter(redisClient *redis.Client, cfg RateLimiterConfig, log *logger.Logger) gin.HandlerFunc {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 30
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 60
	}
	window := time.Duration(cfg.WindowSeconds) * time.Second

	return func(c *gin.Context) {
		key := rateLimitKey(c.ClientIP())
		ctx := c.Request.Context()

		pipe := redisClient.TxPipeline()
		count := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		current := count.Val()
		remaining := int64(cfg.MaxRequests) - current
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if current > int64(cfg.MaxRequests) {
			c.Header("Retry-After", fmt.Sprintf("%d", cfg.WindowSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": fmt.Sprintf("Too many requests, please try again in %d seconds", cfg.WindowSeconds),
			})
			return
		}

		c.Next()
	}
}

func rateLimitKey(ip string) string {
	return "rate_limit:upload:" + ip
}
