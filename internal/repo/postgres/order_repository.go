package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
)

// Проверка, что OrderRepository удовлетворяет интерфейсу OrderRepository.
var _ ports.OrderRepository = (*OrderRepository)(nil)

// Цена хранится как numeric(10,2): пишем строкой с двумя знаками, читаем как text.
const orderColumns = `id, user_id, items, total_price::text, status, created_at`

// OrderRepository — реализация репозитория заказов на Postgres (pgxpool).
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository - конструктор OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository { return &OrderRepository{pool: pool} }

// Insert — сохраняет новый заказ. ID и CreatedAt заполняет вызывающий.
// order.Items заменяется на jsonb-представление из БД, как его вернут последующие чтения.
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return errors.New("order is empty or id is required")
	}
	if order.UserID <= 0 {
		return errors.New("user_id is required")
	}

	var stored []byte
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, items, total_price, status, created_at)
		VALUES ($1, $2, $3::jsonb, $4::numeric, $5, $6)
		RETURNING items
	`, order.ID, order.UserID, []byte(order.Items), order.TotalPrice.StringFixed(2),
		string(order.Status), order.CreatedAt,
	).Scan(&stored); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert order: %w", domain.ErrDuplicateKey)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	order.Items = stored
	return nil
}

// GetByID — получить заказ по id. Если не нашли, возвращает (nil, nil).
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

// ListByUser — все заказы пользователя, новые первыми. Пустой результат — пустой срез, не ошибка.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select user orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders rows: %w", err)
	}
	return orders, nil
}

// Update — перезаписывает items/total_price/status и возвращает строку после обновления.
// id и user_id не меняются. Если строки нет, возвращает (nil, nil).
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil || order.ID == uuid.Nil {
		return nil, errors.New("order is empty or id is required")
	}

	updated, err := scanOrder(r.pool.QueryRow(ctx, `
		UPDATE orders
		SET items = $2::jsonb, total_price = $3::numeric, status = $4
		WHERE id = $1
		RETURNING `+orderColumns,
		order.ID, []byte(order.Items), order.TotalPrice.StringFixed(2), string(order.Status),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return updated, nil
}

// scanOrder — общий разбор строки orders (QueryRow и Rows).
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order  domain.Order
		items  []byte
		price  string
		status string
	)
	if err := row.Scan(&order.ID, &order.UserID, &items, &price, &status, &order.CreatedAt); err != nil {
		return nil, err
	}

	total, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse total_price %q: %w", price, err)
	}

	order.Items = items
	order.TotalPrice = total
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = order.CreatedAt.UTC()
	return &order, nil
}
