package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
)

const (
	orderKeyPrefix  = "order:"
	defaultCacheTTL = 5 * time.Minute
)

var _ ports.OrderCache = (*OrderCache)(nil)

// OrderCache — снимки заказов в Redis: ключ order:<uuid>, значение — JSON заказа, TTL на запись.
type OrderCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewOrderCache — ttl <= 0 заменяется на 5 минут.
func NewOrderCache(client goredis.Cmdable, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &OrderCache{client: client, ttl: ttl}
}

// Key — ключ записи для заказа.
func Key(id uuid.UUID) string { return orderKeyPrefix + id.String() }

func (c *OrderCache) Get(ctx context.Context, id uuid.UUID) (*domain.Order, bool, error) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheOps.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("redis get %s: %w", Key(id), err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		// битая запись — не источник истины, считаем промахом на уровне вызывающего
		metrics.CacheOps.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("decode cached order %s: %w", id, err)
	}

	metrics.CacheOps.WithLabelValues("hit").Inc()
	return &order, true, nil
}

func (c *OrderCache) Set(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return nil
	}

	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.ID, err)
	}

	if err := c.client.Set(ctx, Key(order.ID), data, c.ttl).Err(); err != nil {
		metrics.CacheOps.WithLabelValues("error").Inc()
		return fmt.Errorf("redis set %s: %w", Key(order.ID), err)
	}
	metrics.CacheOps.WithLabelValues("set").Inc()
	return nil
}

func (c *OrderCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, Key(id)).Err(); err != nil {
		metrics.CacheOps.WithLabelValues("error").Inc()
		return fmt.Errorf("redis del %s: %w", Key(id), err)
	}
	metrics.CacheOps.WithLabelValues("delete").Inc()
	return nil
}
