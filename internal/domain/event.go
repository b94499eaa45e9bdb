package domain

import "github.com/google/uuid"

const (
	// EventTypeNewOrder — тип события о создании заказа.
	EventTypeNewOrder = "new_order"
	// EventStatusPending — статус, который уходит в событии о новом заказе.
	EventStatusPending = "pending"
)

// OrderEvent — сообщение в топик заказов.
type OrderEvent struct {
	EventType string         `json:"event_type"`
	Data      OrderEventData `json:"data"`
}

type OrderEventData struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// NewOrderCreatedEvent — событие о новом заказе.
func NewOrderCreatedEvent(orderID uuid.UUID) OrderEvent {
	return OrderEvent{
		EventType: EventTypeNewOrder,
		Data:      OrderEventData{ID: orderID, Status: EventStatusPending},
	}
}
