package ports

import (
	"context"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

// AuthService — регистрация, логин и проверка access-токена.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.UserContext, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*domain.UserContext, error)
}
