package ports

import (
	"context"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

// EventPublisher — канал событий о заказах (best-effort).
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
	Close() error
}
