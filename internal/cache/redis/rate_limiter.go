package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/orderdesk/internal/ports"
)

const rateLimitPrefix = "ratelimit:"

var _ ports.RateLimiter = (*FixedWindowLimiter)(nil)

// FixedWindowLimiter — счётчик запросов на ключ в окне фиксированной длины (INCR + EXPIRE).
// Счётчик общий для всех инстансов сервиса.
type FixedWindowLimiter struct {
	client goredis.Cmdable
	name   string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewFixedWindowLimiter — name различает лимиты разных маршрутов (register, token).
func NewFixedWindowLimiter(client goredis.Cmdable, name string, limit int, window time.Duration) *FixedWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{
		client: client,
		name:   name,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow — true, пока число запросов в текущем окне не превышает limit. limit <= 0 — без ограничения.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s%s:%s:%d", rateLimitPrefix, l.name, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", l.name, err)
	}

	return incr.Val() <= int64(l.limit), nil
}
