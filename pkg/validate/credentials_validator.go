package validate

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/Gunvolt24/orderdesk/internal/ports"
)

var _ ports.CredentialsValidator = (*CredentialsValidator)(nil)

// ErrInvalidCredentials — email/пароль не прошли проверку формата (до обращения к хранилищу).
var ErrInvalidCredentials = errors.New("credentials validation failed")

const (
	minPasswordLen = 8
	// bcrypt игнорирует всё после 72 байт.
	maxPasswordLen = 72
)

type CredentialsValidator struct{}

func NewCredentialsValidator() *CredentialsValidator { return &CredentialsValidator{} }

func (v *CredentialsValidator) Validate(_ context.Context, email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email обязателен", ErrInvalidCredentials)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email некорректен", ErrInvalidCredentials)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: пароль короче %d символов", ErrInvalidCredentials, minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("%w: пароль длиннее %d байт", ErrInvalidCredentials, maxPasswordLen)
	}
	return nil
}
