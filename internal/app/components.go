package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/orderdesk/config"
	cachemem "github.com/Gunvolt24/orderdesk/internal/cache/memory"
	cacheredis "github.com/Gunvolt24/orderdesk/internal/cache/redis"
	"github.com/Gunvolt24/orderdesk/internal/kafka"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/internal/rabbitmq"
	"github.com/Gunvolt24/orderdesk/pkg/telemetry"
)

const (
	cacheBackendRedis  = "redis"
	cacheBackendMemory = "memory"

	eventsDriverKafka    = "kafka"
	eventsDriverRabbitMQ = "rabbitmq"
)

// cleanupStack — функции освобождения; run вызывает их в обратном порядке и один раз.
type cleanupStack struct {
	mu    sync.Mutex
	funcs []func()
}

func (s *cleanupStack) push(fn func()) {
	s.mu.Lock()
	s.funcs = append(s.funcs, fn)
	s.mu.Unlock()
}

func (s *cleanupStack) run() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		funcs[i]()
	}
}

// setupTracing — OTLP-экспортёр при включённом трейсинге; ошибка настройки не фатальна.
func setupTracing(ctx context.Context, cfg config.Tracing, log ports.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.SetupTracing(ctx, cfg.ServiceName, cfg.Endpoint, cfg.SampleRatio)
	if err != nil {
		log.Warnf(ctx, "failed to setup tracing: %v", err)
		return func() {}
	}
	log.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
		cfg.ServiceName, cfg.Endpoint, cfg.SampleRatio)

	return func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warnf(ctx, "shutdown tracing: %v", err)
		}
	}
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// newRedisClient — клиент нужен, если кэш в Redis или включён rate limit; иначе nil.
func newRedisClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	if normalize(cfg.Cache.Backend) != cacheBackendRedis && !cfg.RateLimit.Enabled {
		return nil, nil
	}

	client, err := cacheredis.NewClient(ctx, cacheredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newOrderCache — кэш снимков заказов по ORDER_CACHE_BACKEND.
func newOrderCache(cfg config.Cache, rdb *goredis.Client) (ports.OrderCache, error) {
	switch normalize(cfg.Backend) {
	case cacheBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("cache backend %q requires redis client", cfg.Backend)
		}
		return cacheredis.NewOrderCache(rdb, cfg.TTL), nil
	case cacheBackendMemory:
		return cachemem.NewLRUCacheTTL(cfg.Capacity, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want redis|memory)", cfg.Backend)
	}
}

// newLimiters — лимитеры для /auth/register и /auth/token; выключенный rate limit — (nil, nil).
func newLimiters(cfg config.RateLimit, rdb *goredis.Client) (register, token ports.RateLimiter) {
	if !cfg.Enabled || rdb == nil {
		return nil, nil
	}
	register = cacheredis.NewFixedWindowLimiter(rdb, "register", cfg.RegisterLimit, cfg.Window)
	token = cacheredis.NewFixedWindowLimiter(rdb, "token", cfg.TokenLimit, cfg.Window)
	return register, token
}

// newEventPublisher — канал событий о заказах по ORDER_EVENTS_DRIVER.
func newEventPublisher(ctx context.Context, cfg *config.Config, log ports.Logger) (ports.EventPublisher, error) {
	switch normalize(cfg.Events.Driver) {
	case eventsDriverKafka:
		p, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			ConnectRetry: cfg.Events.ConnectRetry,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return p, nil
	case eventsDriverRabbitMQ:
		p, err := rabbitmq.NewPublisher(ctx, &rabbitmq.Config{
			URL:          cfg.RabbitMQ.URL,
			Exchange:     cfg.RabbitMQ.Exchange,
			ConnectRetry: cfg.Events.ConnectRetry,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q (want kafka|rabbitmq)", cfg.Events.Driver)
	}
}
