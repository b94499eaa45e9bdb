package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// Мини-генератор валидного заказа. UserID надо задать опцией — FK на users.
func MakeOrder(opts ...func(*domain.Order)) domain.Order {
	o := domain.Order{
		ID:         uuid.New(),
		UserID:     1,
		Items:      json.RawMessage(`[{"name":"book","qty":1}]`),
		TotalPrice: decimal.RequireFromString("19.99"),
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func WithUser(userID int64) func(*domain.Order) {
	return func(o *domain.Order) { o.UserID = userID }
}

func WithStatus(status domain.OrderStatus) func(*domain.Order) {
	return func(o *domain.Order) { o.Status = status }
}

func WithPrice(price string) func(*domain.Order) {
	return func(o *domain.Order) { o.TotalPrice = decimal.RequireFromString(price) }
}

func WithItems(raw string) func(*domain.Order) {
	return func(o *domain.Order) { o.Items = json.RawMessage(raw) }
}

func WithCreatedAt(at time.Time) func(*domain.Order) {
	return func(o *domain.Order) { o.CreatedAt = at.UTC().Truncate(time.Microsecond) }
}

// MakeUser — пользователь с уникальным email и заранее заданным хешем.
func MakeUser(passwordHash string) domain.User {
	return domain.User{
		Email:        "user-" + UniqSuffix() + "@example.com",
		PasswordHash: passwordHash,
	}
}
