package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/ctxmeta"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
)

var _ ports.EventPublisher = (*Producer)(nil)

// driverName — метка драйвера в метриках событий.
const driverName = "kafka"

// writer — минимальный контракт над kafka.Writer (подменяется моком в тестах).
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// dialFunc — одна попытка подключиться к брокеру.
type dialFunc func(ctx context.Context, addr string) error

// ProducerConfig — параметры публикации событий о заказах.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	ConnectRetry time.Duration // пауза между попытками подключения на старте
}

// Producer — публикует события в топик заказов. Ключ сообщения — id заказа.
type Producer struct {
	writer    writer
	topic     string
	log       ports.Logger
	closeOnce sync.Once
}

// NewProducer ждёт доступности брокера и создаёт kafka.Writer.
// Попытки повторяются каждые ConnectRetry, пока не отменён ctx.
func NewProducer(ctx context.Context, cfg *ProducerConfig, log ports.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka producer: brokers and topic are required")
	}

	if err := waitForBroker(ctx, cfg.Brokers, cfg.ConnectRetry, dialBroker, log); err != nil {
		return nil, err
	}

	wt := cfg.WriteTimeout
	if wt <= 0 {
		wt = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: wt,
		RequiredAcks: kafka.RequireOne,
	}

	log.Infof(ctx, "kafka producer ready topic=%s brokers=%v", cfg.Topic, cfg.Brokers)
	return newProducer(w, cfg.Topic, log), nil
}

func newProducer(w writer, topic string, log ports.Logger) *Producer {
	return &Producer{writer: w, topic: topic, log: log}
}

// PublishOrderEvent — сериализует событие и пишет его в топик.
func (p *Producer) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.EventsFailed.WithLabelValues(driverName).Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Data.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
		Time: time.Now().UTC(),
	}
	if rid, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "request_id", Value: []byte(rid)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsFailed.WithLabelValues(driverName).Inc()
		return fmt.Errorf("kafka write topic=%s: %w", p.topic, err)
	}

	metrics.EventsPublished.WithLabelValues(driverName).Inc()
	p.log.Debugf(ctx, "event published type=%s order_id=%s topic=%s", event.EventType, event.Data.ID, p.topic)
	return nil
}

// Close — сбрасывает буфер writer'а и закрывает соединения.
func (p *Producer) Close() (retErr error) {
	p.closeOnce.Do(func() {
		retErr = p.writer.Close()
	})
	return retErr
}

// waitForBroker перебирает брокеров по кругу до первого успешного подключения.
func waitForBroker(ctx context.Context, brokers []string, retry time.Duration, dial dialFunc, log ports.Logger) error {
	if retry <= 0 {
		retry = 2 * time.Second
	}

	for attempt := 0; ; attempt++ {
		addr := brokers[attempt%len(brokers)]

		err := dial(ctx, addr)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("kafka producer: wait for broker: %w", ctx.Err())
		}

		log.Warnf(ctx, "kafka broker %s unavailable: %v (retry in %s)", addr, err, retry)

		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka producer: wait for broker: %w", ctx.Err())
		case <-time.After(retry):
		}
	}
}

// dialTimeout — предел одной попытки подключения.
const dialTimeout = 5 * time.Second

// dialBroker открывает и сразу закрывает соединение с брокером.
func dialBroker(ctx context.Context, addr string) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := kafka.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
