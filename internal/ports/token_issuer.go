package ports

import "github.com/Gunvolt24/orderdesk/internal/domain"

// TokenIssuer — хеширование паролей и выпуск/проверка токенов. Без состояния.
type TokenIssuer interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, digest string) bool
	CreateTokenPair(userID int64, organizationID *int64, role *string) (*domain.TokenPair, error)
	VerifyToken(token string, expected domain.TokenType) (*domain.TokenPayload, error)
}
