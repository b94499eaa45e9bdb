package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

func newOrder(id uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:         id,
		UserID:     1,
		Items:      json.RawMessage(`["x"]`),
		TotalPrice: decimal.RequireFromString("1.50"),
		Status:     domain.StatusPending,
	}
}

func TestSetGet_HitMiss(t *testing.T) {
	c := NewLRUCacheTTL(2, 5*time.Minute)
	ctx := context.Background()
	id := uuid.New()

	// miss
	if _, ok, err := c.Get(ctx, id); ok || err != nil {
		t.Fatalf("expected miss before Set, ok=%v err=%v", ok, err)
	}

	// hit после Set
	_ = c.Set(ctx, newOrder(id))
	got, ok, err := c.Get(ctx, id)
	if err != nil || !ok || got.ID != id {
		t.Fatalf("expected hit for %s", id)
	}
}

func TestTTL_Expiry(t *testing.T) {
	c := NewLRUCacheTTL(2, 100*time.Millisecond)
	ctx := context.Background()
	id := uuid.New()

	_ = c.Set(ctx, newOrder(id))
	if _, ok, _ := c.Get(ctx, id); !ok {
		t.Fatalf("expected hit right after Set")
	}
	time.Sleep(150 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, id); ok {
		t.Fatalf("expected miss after TTL expires")
	}
}

// TTL абсолютный: чтение не продлевает жизнь записи.
func TestTTL_ReadDoesNotExtend(t *testing.T) {
	c := NewLRUCacheTTL(2, 120*time.Millisecond)
	ctx := context.Background()
	id := uuid.New()

	_ = c.Set(ctx, newOrder(id))
	time.Sleep(80 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, id); !ok {
		t.Fatalf("expected hit before TTL")
	}
	time.Sleep(80 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, id); ok {
		t.Fatalf("expected miss: Get must not extend TTL")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCacheTTL(2, 0) // 0 = без TTL
	ctx := context.Background()
	a, b, cc := uuid.New(), uuid.New(), uuid.New()

	_ = c.Set(ctx, newOrder(a))
	_ = c.Set(ctx, newOrder(b))
	// A сделать «свежим»
	if _, ok, _ := c.Get(ctx, a); !ok {
		t.Fatalf("expected hit for A")
	}
	// Добавляем C — вытеснит B (самый старый)
	_ = c.Set(ctx, newOrder(cc))

	if _, ok, _ := c.Get(ctx, b); ok {
		t.Fatalf("expected B to be evicted")
	}
	if _, ok, _ := c.Get(ctx, a); !ok || c.Len() != 2 {
		t.Fatalf("expected A & C to stay in cache")
	}
}

func TestDelete_RemovesAndIsIdempotent(t *testing.T) {
	c := NewLRUCacheTTL(4, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	_ = c.Set(ctx, newOrder(id))
	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, id); ok {
		t.Fatalf("expected miss after Delete")
	}
	// повторный Delete отсутствующего ключа — не ошибка
	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}

func TestCloneImmutability(t *testing.T) {
	c := NewLRUCacheTTL(1, 0)
	ctx := context.Background()
	id := uuid.New()
	orig := newOrder(id)
	_ = c.Set(ctx, orig)

	// меняем исходный объект после Set — не должно влиять на кэш
	orig.Items[0] = '{'

	// меняем то, что вернул Get — тоже не должно влиять
	o1, _, _ := c.Get(ctx, id)
	o1.Items[1] = '?'
	o1.Status = domain.StatusCanceled

	o2, _, _ := c.Get(ctx, id)
	if string(o2.Items) != `["x"]` || o2.Status != domain.StatusPending {
		t.Fatalf("cache should return clones, not pointers to internal value: %s %s", o2.Items, o2.Status)
	}
}

func TestSet_IgnoresNilAndZeroID(t *testing.T) {
	c := NewLRUCacheTTL(2, 0)
	ctx := context.Background()

	if err := c.Set(ctx, nil); err != nil {
		t.Fatalf("Set(nil): %v", err)
	}
	if err := c.Set(ctx, newOrder(uuid.Nil)); err != nil {
		t.Fatalf("Set(zero id): %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected nothing stored, got %d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewLRUCacheTTL(8, time.Minute)
	ctx := context.Background()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ids[i%len(ids)]
			_ = c.Set(ctx, newOrder(id))
			_, _, _ = c.Get(ctx, id)
			if i%5 == 0 {
				_ = c.Delete(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > len(ids) {
		t.Fatalf("expected at most %d entries, got %d", len(ids), c.Len())
	}
}
