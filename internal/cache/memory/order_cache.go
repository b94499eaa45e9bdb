package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
)

var _ ports.OrderCache = (*LRUCacheTTL)(nil)

type entry struct {
	id        uuid.UUID
	order     *domain.Order
	expiresAt time.Time
}

// LRUCacheTTL — кэш заказов в памяти процесса: LRU-вытеснение + абсолютный TTL от момента Set.
// Используется, когда Redis не нужен (ORDER_CACHE_BACKEND=memory), и в тестах.
type LRUCacheTTL struct {
	capacity int
	ttl      time.Duration

	ll    *list.List
	index map[uuid.UUID]*list.Element

	mu sync.Mutex
}

func NewLRUCacheTTL(capacity int, ttl time.Duration) *LRUCacheTTL {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCacheTTL{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		index:    make(map[uuid.UUID]*list.Element),
	}
}

// Get — копия снимка при попадании. Ошибок не бывает, сигнатура — ради общего контракта.
func (c *LRUCacheTTL) Get(_ context.Context, id uuid.UUID) (*domain.Order, bool, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[id]
	if !ok {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	ent := elem.Value.(*entry)
	if c.isExpired(ent, now) {
		metrics.CacheOps.WithLabelValues("expired").Inc()
		c.removeElement(elem)
		metrics.CacheSize.Set(float64(len(c.index)))
		return nil, false, nil
	}
	c.ll.MoveToFront(elem)

	metrics.CacheOps.WithLabelValues("hit").Inc()
	return ent.order.Clone(), true, nil
}

// Set — кладёт копию снимка; повторный Set того же id перезаписывает значение и TTL.
func (c *LRUCacheTTL) Set(_ context.Context, order *domain.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return nil
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.CacheOps.WithLabelValues("set").Inc()

	if elem, ok := c.index[order.ID]; ok {
		ent := elem.Value.(*entry)
		ent.order = order.Clone()
		ent.expiresAt = c.expiryFrom(now)
		c.ll.MoveToFront(elem)
		return nil
	}

	c.pruneExpiredFromBack(now)

	elem := c.ll.PushFront(&entry{
		id:        order.ID,
		order:     order.Clone(),
		expiresAt: c.expiryFrom(now),
	})
	c.index[order.ID] = elem
	metrics.CacheSize.Set(float64(len(c.index)))

	if c.ll.Len() > c.capacity {
		c.evictLRU()
	}
	return nil
}

// Delete — инвалидация; отсутствие записи не ошибка.
func (c *LRUCacheTTL) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.CacheOps.WithLabelValues("delete").Inc()
	if elem, ok := c.index[id]; ok {
		c.removeElement(elem)
		metrics.CacheSize.Set(float64(len(c.index)))
	}
	return nil
}

// Len — текущее число записей (включая ещё не вычищенные просроченные).
func (c *LRUCacheTTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
