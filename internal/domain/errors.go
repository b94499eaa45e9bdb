package domain

import "errors"

// Ошибки аутентификации.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWrongTokenType     = errors.New("wrong token type")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Ошибки заказов.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNoOrdersFound = errors.New("no orders found")
	ErrUpdateFailed  = errors.New("order update failed")
)

// ErrDuplicateKey — нарушение уникального ограничения в хранилище.
var ErrDuplicateKey = errors.New("duplicate key")
