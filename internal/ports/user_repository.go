package ports

import (
	"context"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

// UserRepository — хранилище учётных записей.
type UserRepository interface {
	// FindByEmail — (nil, nil), если пользователя нет.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID — (nil, nil), если пользователя нет.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Insert — сохраняет пользователя, заполняет ID/CreatedAt.
	// При нарушении уникальности email возвращает domain.ErrDuplicateKey.
	Insert(ctx context.Context, user *domain.User) error
}
