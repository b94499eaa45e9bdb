package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
)

// Проверка, что OrderValidator удовлетворяет интерфейсу OrderValidator.
var _ ports.OrderValidator = (*OrderValidator)(nil)

// ErrInvalidOrder — базовая (sentinel error) ошибка валидации.
var ErrInvalidOrder = errors.New("order validation failed")

// maxTotalPrice — граница numeric(10,2): максимум 99999999.99.
var maxTotalPrice = decimal.New(1, 8)

// OrderValidator — структура для валидации входных данных заказа (create и patch).
type OrderValidator struct{}

// NewOrderValidator — конструктор OrderValidator.
// Возвращает ErrInvalidOrder (с обёрнутой причиной) при любой проблеме.
func NewOrderValidator() *OrderValidator { return &OrderValidator{} }

// Validate — проверяет items, total_price и status.
func (v *OrderValidator) Validate(_ context.Context, input *domain.OrderInput) error {
	if input == nil {
		return fmt.Errorf("%w: заказ не может быть nil", ErrInvalidOrder)
	}
	if err := v.validateItems(input.Items); err != nil {
		return err
	}
	if err := v.validatePrice(input.TotalPrice); err != nil {
		return err
	}
	if input.Status != "" && !input.Status.Valid() {
		return fmt.Errorf("%w: status %q не из набора PENDING|PAID|SHIPPED|CANCELED", ErrInvalidOrder, input.Status)
	}
	return nil
}

// Валидация товаров: произвольный JSON-документ, но не пустой и не null.
func (v *OrderValidator) validateItems(items json.RawMessage) error {
	trimmed := bytes.TrimSpace(items)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: items обязателен", ErrInvalidOrder)
	}
	if !json.Valid(trimmed) {
		return fmt.Errorf("%w: items не является корректным JSON", ErrInvalidOrder)
	}
	return nil
}

// Валидация цены
func (v *OrderValidator) validatePrice(total decimal.NullDecimal) error {
	if !total.Valid {
		return fmt.Errorf("%w: total_price обязателен", ErrInvalidOrder)
	}
	price := total.Decimal
	if price.IsNegative() {
		return fmt.Errorf("%w: total_price должен быть неотрицательным", ErrInvalidOrder)
	}
	if !price.Equal(price.Round(2)) {
		return fmt.Errorf("%w: total_price — не больше двух знаков после запятой", ErrInvalidOrder)
	}
	if price.GreaterThanOrEqual(maxTotalPrice) {
		return fmt.Errorf("%w: total_price слишком большой", ErrInvalidOrder)
	}
	return nil
}
