package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/ctxmeta"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
)

var _ ports.EventPublisher = (*Publisher)(nil)

const driverName = "rabbitmq"

// channel — то, что нужно публикатору от amqp-канала.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Config — параметры публикации событий в RabbitMQ.
type Config struct {
	URL          string
	Exchange     string        // fanout-exchange для событий о заказах
	ConnectRetry time.Duration // пауза между попытками подключения на старте
}

// Publisher — публикует события в fanout-exchange. Канал открывается на каждую публикацию.
type Publisher struct {
	exchange    string
	openChannel func() (channel, error)
	closeConn   func() error
	log         ports.Logger
	closeOnce   sync.Once
}

// NewPublisher подключается к брокеру (повтор каждые ConnectRetry до отмены ctx)
// и объявляет exchange.
func NewPublisher(ctx context.Context, cfg *Config, log ports.Logger) (*Publisher, error) {
	if cfg.URL == "" || cfg.Exchange == "" {
		return nil, errors.New("rabbitmq publisher: url and exchange are required")
	}

	conn, err := dialWithRetry(ctx, cfg.URL, cfg.ConnectRetry, log)
	if err != nil {
		return nil, err
	}

	if err := declareExchange(conn, cfg.Exchange); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Infof(ctx, "rabbitmq publisher ready exchange=%s", cfg.Exchange)
	return &Publisher{
		exchange:    cfg.Exchange,
		openChannel: func() (channel, error) { return conn.Channel() },
		closeConn:   conn.Close,
		log:         log,
	}, nil
}

func declareExchange(conn *amqp.Connection, exchange string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// PublishOrderEvent — публикует событие; routing key — тип события.
func (p *Publisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		metrics.EventsFailed.WithLabelValues(driverName).Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.openChannel()
	if err != nil {
		metrics.EventsFailed.WithLabelValues(driverName).Inc()
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.Data.ID.String(),
		Type:         event.EventType,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if rid, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		msg.Headers = amqp.Table{"request_id": rid}
	}

	if err := ch.PublishWithContext(ctx, p.exchange, event.EventType, false, false, msg); err != nil {
		metrics.EventsFailed.WithLabelValues(driverName).Inc()
		return fmt.Errorf("rabbitmq publish exchange=%s: %w", p.exchange, err)
	}

	metrics.EventsPublished.WithLabelValues(driverName).Inc()
	p.log.Debugf(ctx, "event published type=%s order_id=%s exchange=%s", event.EventType, event.Data.ID, p.exchange)
	return nil
}

// Close — закрывает соединение с брокером.
func (p *Publisher) Close() (retErr error) {
	p.closeOnce.Do(func() {
		if p.closeConn != nil {
			retErr = p.closeConn()
		}
	})
	return retErr
}

// dialWithRetry — подключение с фиксированной паузой между попытками.
func dialWithRetry(ctx context.Context, url string, retry time.Duration, log ports.Logger) (*amqp.Connection, error) {
	if retry <= 0 {
		retry = 2 * time.Second
	}

	for {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}

		log.Warnf(ctx, "rabbitmq unavailable: %v (retry in %s)", err, retry)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("rabbitmq publisher: wait for broker: %w", ctx.Err())
		case <-time.After(retry):
		}
	}
}
