package ports

import "context"

// RateLimiter — ограничение частоты запросов по ключу.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
