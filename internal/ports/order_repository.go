package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

// OrderRepository — хранилище заказов. Отсутствие записи: (nil, nil).
type OrderRepository interface {
	// Insert — сохраняет заказ; Items заменяется представлением, которое вернут чтения.
	Insert(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
}
