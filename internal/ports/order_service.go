package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

// OrderService — сценарии работы с заказами (для транспортного слоя).
type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, input *domain.OrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	PatchOrder(ctx context.Context, id uuid.UUID, input *domain.OrderInput) (*domain.Order, error)
	OrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
}
