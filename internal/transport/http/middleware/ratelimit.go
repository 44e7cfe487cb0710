package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ErlanBelekov/uptask-api/internal/infrastructure/redis"
	"github.com/ErlanBelekov/uptask-api/internal/metrics"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/gin-gonic/gin"
)

type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// RateLimit counts requests per client IP and route. When the limiter
// backend is down requests are let through.
func RateLimit(limiter Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		err := limiter.Allow(c.Request.Context(), path+":"+c.ClientIP())
		switch {
		case err == nil:
		case errors.Is(err, redis.ErrRateLimited):
			metrics.RateLimitedTotal.WithLabelValues(path).Inc()
			respond.Abort(c, logger, respond.ErrRateLimited)
			return
		default:
			logger.WarnContext(c.Request.Context(), "rate limiter unavailable, allowing request", "error", err)
		}
		c.Next()
	}
}
