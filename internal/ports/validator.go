package ports

import (
	"context"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

type OrderValidator interface {
	Validate(ctx context.Context, input *domain.OrderInput) error
}

type CredentialsValidator interface {
	Validate(ctx context.Context, email, password string) error
}
