package domain

import (
	"time"
)

// User — учётная запись. PasswordHash наружу не отдаётся никогда.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserContext — публичные данные пользователя.
type UserContext struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// TokenType — назначение токена.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// TokenPair — пара токенов, выдаваемая при логине.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenPayload — содержимое проверенного токена.
type TokenPayload struct {
	Subject        string
	ExpiresAt      time.Time
	Type           TokenType
	OrganizationID *int64
	Role           *string
}
