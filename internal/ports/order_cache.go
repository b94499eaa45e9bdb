package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

// OrderCache — кэш снимков заказов (ключ order:<id>).
// Кэш не авторитетен: промах не означает, что заказа нет.
type OrderCache interface {
	// Get — (order, true, nil) при попадании, (nil, false, nil) при промахе.
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, bool, error)

	// Set — сохранить снимок с TTL реализации.
	Set(ctx context.Context, order *domain.Order) error

	// Delete — инвалидировать запись; отсутствие записи не ошибка.
	Delete(ctx context.Context, id uuid.UUID) error
}
