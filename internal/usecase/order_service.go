package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
	"github.com/Gunvolt24/orderdesk/pkg/telemetry"
	"github.com/Gunvolt24/orderdesk/pkg/validate"
)

var _ ports.OrderService = (*OrderService)(nil)

// defaultPublishTimeout — предел публикации события, если не задан опцией.
const defaultPublishTimeout = 5 * time.Second

// OrderService — жизненный цикл заказа: хранилище, кэш и события (без знаний о транспорте).
type OrderService struct {
	repo      ports.OrderRepository // источник истины
	cache     ports.OrderCache      // снимки для GetOrder
	publisher ports.EventPublisher  // best-effort уведомления, может быть nil
	log       ports.Logger
	validator ports.OrderValidator

	emptyListIsError bool
	publishTimeout   time.Duration
	now              func() time.Time
}

// OrderServiceOption — необязательные настройки OrderService.
type OrderServiceOption func(*OrderService)

// WithEmptyListIsError — пустой список заказов пользователя считать ErrNoOrdersFound.
func WithEmptyListIsError(v bool) OrderServiceOption {
	return func(s *OrderService) { s.emptyListIsError = v }
}

// WithPublishTimeout — предел публикации события о новом заказе.
func WithPublishTimeout(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithOrderClock — источник времени для CreatedAt (в тестах).
func WithOrderClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOrderService — DI-конструктор.
func NewOrderService(
	repo ports.OrderRepository,
	cache ports.OrderCache,
	publisher ports.EventPublisher,
	log ports.Logger,
	validator ports.OrderValidator,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		repo:             repo,
		cache:            cache,
		publisher:        publisher,
		log:              log,
		validator:        validator,
		emptyListIsError: true,
		publishTimeout:   defaultPublishTimeout,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder — валидирует вход, сохраняет новый заказ и публикует событие new_order.
// Ошибка публикации не влияет на результат; кэш не заполняется.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, input *domain.OrderInput) (order *domain.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(attribute.Int64("order.user_id", userID)))
	defer func(start time.Time) { s.finish(span, "create", start, err) }(time.Now())

	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", validate.ErrInvalidOrder)
	}
	if err = s.validator.Validate(ctx, input); err != nil {
		s.log.Warnf(ctx, "create order: validation failed user_id=%d err=%v", userID, err)
		return nil, err
	}

	order = &domain.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Items:      append([]byte(nil), input.Items...),
		TotalPrice: input.TotalPrice.Decimal.Round(2),
		Status:     input.StatusOrDefault(),
		// Postgres хранит микросекунды: снимок должен совпадать с тем, что прочитается из БД.
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	if err = s.repo.Insert(ctx, order); err != nil {
		s.log.Errorf(ctx, "repo.Insert failed order_id=%s err=%v", order.ID, err)
		return nil, fmt.Errorf("insert order: %w", err)
	}

	s.publishCreated(ctx, order.ID)

	s.log.Infof(ctx, "order created id=%s user_id=%d status=%s", order.ID, order.UserID, order.Status)
	return order, nil
}

// publishCreated — best-effort публикация события о новом заказе.
// Контекст отвязан от отмены запроса, но ограничен publishTimeout.
func (s *OrderService) publishCreated(ctx context.Context, id uuid.UUID) {
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishOrderEvent(pubCtx, domain.NewOrderCreatedEvent(id)); err != nil {
		s.log.Errorf(ctx, "publish new_order failed order_id=%s err=%v", id, err)
		return
	}
	s.log.Debugf(ctx, "new_order event sent order_id=%s", id)
}

// GetOrder — сначала кэш, при промахе — хранилище с записью в кэш.
// Ошибки кэша не фатальны: логируем и идём в хранилище.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (order *domain.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderService.GetOrder",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func(start time.Time) { s.finish(span, "get", start, err) }(time.Now())

	cached, found, cacheErr := s.cache.Get(ctx, id)
	switch {
	case cacheErr != nil:
		s.log.Warnf(ctx, "cache.Get failed order_id=%s err=%v (fallback to db)", id, cacheErr)
	case found:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		s.log.Debugf(ctx, "cache hit for order=%s", id)
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	order, err = s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Errorf(ctx, "repo.GetByID failed order_id=%s err=%v", id, err)
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if setErr := s.cache.Set(ctx, order); setErr != nil {
		s.log.Warnf(ctx, "cache.Set failed order_id=%s err=%v", id, setErr)
	}

	s.log.Debugf(ctx, "db fetch order_id=%s took=%s", id, time.Since(start))
	return order, nil
}

// PatchOrder — полная замена items/total_price/status.
// Ошибка обновления возвращается как ErrUpdateFailed, и тогда кэш не трогаем.
// После успешного обновления запись в кэше удаляется.
func (s *OrderService) PatchOrder(ctx context.Context, id uuid.UUID, input *domain.OrderInput) (order *domain.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderService.PatchOrder",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func(start time.Time) { s.finish(span, "patch", start, err) }(time.Now())

	if err = s.validator.Validate(ctx, input); err != nil {
		s.log.Warnf(ctx, "patch order: validation failed order_id=%s err=%v", id, err)
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Errorf(ctx, "repo.GetByID failed order_id=%s err=%v", id, err)
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if current == nil {
		return nil, domain.ErrOrderNotFound
	}

	next := current.Clone()
	next.Items = append([]byte(nil), input.Items...)
	next.TotalPrice = input.TotalPrice.Decimal.Round(2)
	next.Status = input.StatusOrDefault()

	order, err = s.repo.Update(ctx, next)
	if err != nil {
		s.log.Errorf(ctx, "repo.Update failed order_id=%s err=%v", id, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpdateFailed, err)
	}
	if order == nil {
		// Заказы не удаляются, но между чтением и обновлением строки может не стать.
		return nil, domain.ErrOrderNotFound
	}

	if delErr := s.cache.Delete(ctx, id); delErr != nil {
		s.log.Warnf(ctx, "cache.Delete failed order_id=%s err=%v", id, delErr)
	}

	s.log.Infof(ctx, "order patched id=%s status %s -> %s", id, current.Status, order.Status)
	return order, nil
}

// OrdersByUser — заказы пользователя напрямую из хранилища (кэш не используется).
func (s *OrderService) OrdersByUser(ctx context.Context, userID int64) (orders []*domain.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderService.OrdersByUser",
		trace.WithAttributes(attribute.Int64("order.user_id", userID)))
	defer func(start time.Time) { s.finish(span, "list", start, err) }(time.Now())

	orders, err = s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.log.Errorf(ctx, "repo.ListByUser failed user_id=%d err=%v", userID, err)
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}

	if len(orders) == 0 {
		if s.emptyListIsError {
			return nil, domain.ErrNoOrdersFound
		}
		return []*domain.Order{}, nil
	}

	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// finish — метрики и статус спана по итогу операции.
func (s *OrderService) finish(span trace.Span, op string, start time.Time, err error) {
	result := resultOf(err)
	metrics.OrderOps.WithLabelValues(op, result).Inc()
	metrics.OrderOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if result == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrNoOrdersFound):
		return "not_found"
	case errors.Is(err, validate.ErrInvalidOrder):
		return "invalid"
	default:
		return "error"
	}
}
