package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
)

// RateLimit — middleware ограничения частоты по IP клиента.
// Ошибка лимитера не блокирует запрос: пропускаем и пишем warn.
func RateLimit(limiter ports.RateLimiter, route string, log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			log.Warnf(ctx, "rate limiter %s unavailable: %v", route, err)
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitRejected.WithLabelValues(route).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
