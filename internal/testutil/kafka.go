//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/orderdesk/internal/domain"
)

// UniqueTopicAndGroup — изолированные топик и consumer group для одного теста.
// Пример: base="orders-itc-Test" → "orders-itc-Test-1a2b3c4d", "orders-itc-Test-1a2b3c4d-workers".
func UniqueTopicAndGroup(base string) (topic, group string) {
	topic = base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return topic, topic + "-workers"
}

// EnsureTopic — создаёт топик с одной партицией (существующий — не ошибка)
// и ждёт, пока брокер отдаст его в метаданных.
// broker: "host:port", "PLAINTEXT://host:port" или список через запятую (берётся первый).
func EnsureTopic(ctx context.Context, broker, topic string) error {
	client := &kafka.Client{Addr: kafka.TCP(firstBootstrap(broker)), Timeout: 10 * time.Second}

	resp, err := client.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}},
	})
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	if tErr := resp.Errors[topic]; tErr != nil && !errors.Is(tErr, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, tErr)
	}

	return waitTopicReady(ctx, client, topic)
}

// ReadOrderEvent — первое сообщение из партиции 0 и его разобранное тело.
func ReadOrderEvent(ctx context.Context, brokers []string, topic string) (kafka.Message, domain.OrderEvent, error) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer r.Close()

	var ev domain.OrderEvent
	msg, err := r.ReadMessage(ctx)
	if err != nil {
		return msg, ev, fmt.Errorf("read %q: %w", topic, err)
	}
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return msg, ev, fmt.Errorf("decode order event: %w", err)
	}
	return msg, ev, nil
}

// HeaderValue — значение заголовка сообщения или "".
func HeaderValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// firstBootstrap — первый адрес bootstrap-строки без схемы.
func firstBootstrap(raw string) string {
	first := strings.TrimSpace(strings.Split(raw, ",")[0])
	if strings.Contains(first, "://") {
		if u, err := url.Parse(first); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return first
}

func waitTopicReady(ctx context.Context, client *kafka.Client, topic string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		meta, err := client.Metadata(ctx, &kafka.MetadataRequest{Topics: []string{topic}})
		switch {
		case err != nil:
			lastErr = err
		case len(meta.Topics) == 1 && meta.Topics[0].Error == nil && len(meta.Topics[0].Partitions) > 0:
			return nil
		case len(meta.Topics) == 1:
			lastErr = meta.Topics[0].Error
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("topic %q not ready: %w", topic, lastErr)
			}
			return fmt.Errorf("topic %q not ready: %w", topic, ctx.Err())
		case <-ticker.C:
		}
	}
}
