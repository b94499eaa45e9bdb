package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
)

// ErrInvalidEvent — событие нельзя обработать ни сейчас, ни при повторе (битый JSON, чужой тип).
var ErrInvalidEvent = errors.New("invalid order event")

// OrderEventProcessor — обработчик событий из топика заказов (order-worker).
type OrderEventProcessor struct {
	log   ports.Logger
	delay time.Duration // имитация длительной обработки
}

// NewOrderEventProcessor — DI-конструктор. delay <= 0 — без паузы.
func NewOrderEventProcessor(log ports.Logger, delay time.Duration) *OrderEventProcessor {
	return &OrderEventProcessor{log: log, delay: delay}
}

// HandleEvent — разбор и обработка одного события.
// Ошибки с ErrInvalidEvent означают «пропустить», остальные — «повторить позже».
func (p *OrderEventProcessor) HandleEvent(ctx context.Context, raw []byte) error {
	event, err := decodeEvent(raw)
	if err != nil {
		return err
	}

	switch event.EventType {
	case domain.EventTypeNewOrder:
		return p.processNewOrder(ctx, event.Data)
	default:
		return fmt.Errorf("%w: unsupported event_type %q", ErrInvalidEvent, event.EventType)
	}
}

func (p *OrderEventProcessor) processNewOrder(ctx context.Context, data domain.OrderEventData) error {
	if data.ID == uuid.Nil {
		return fmt.Errorf("%w: empty order id", ErrInvalidEvent)
	}

	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("process order %s: %w", data.ID, ctx.Err())
		case <-time.After(p.delay):
		}
	}

	p.log.Infof(ctx, "order processed id=%s status=%s", data.ID, data.Status)
	return nil
}

// decodeEvent — строгий разбор: неизвестные поля и хвост после объекта запрещены.
func decodeEvent(raw []byte) (*domain.OrderEvent, error) {
	var event domain.OrderEvent
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&event); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidEvent, err)
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidEvent)
	}
	return &event, nil
}
