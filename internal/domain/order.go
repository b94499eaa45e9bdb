package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus — статус заказа.
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusPaid     OrderStatus = "PAID"
	StatusShipped  OrderStatus = "SHIPPED"
	StatusCanceled OrderStatus = "CANCELED"
)

// Valid — входит ли статус в допустимый набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCanceled:
		return true
	}
	return false
}

// Order — снимок заказа. Этот же JSON кладётся в кэш и отдаётся клиенту.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	UserID     int64           `json:"user_id"`
	Items      json.RawMessage `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Clone — глубокая копия (Items — срез байт, делим его только явно).
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Items != nil {
		c.Items = append(json.RawMessage(nil), o.Items...)
	}
	return &c
}

// OrderInput — изменяемые поля заказа (создание и полная замена при patch).
// TotalPrice.Valid == false — поле не передано или null.
type OrderInput struct {
	Items      json.RawMessage     `json:"items"`
	TotalPrice decimal.NullDecimal `json:"total_price"`
	Status     OrderStatus         `json:"status,omitempty"`
}

// StatusOrDefault — статус из запроса или PENDING, если не задан.
func (in *OrderInput) StatusOrDefault() OrderStatus {
	if in.Status == "" {
		return StatusPending
	}
	return in.Status
}
