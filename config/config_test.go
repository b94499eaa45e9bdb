package config_test

import (
	"slices"
	"testing"
	"time"

	cfg "github.com/Gunvolt24/orderdesk/config"
)

// TestLoadWithPrefix_Defaults — проверка наличия значений по умолчанию.
func TestLoadWithPrefix_Defaults(t *testing.T) {
	t.Parallel()

	c, err := cfg.LoadWithPrefix("ORDER_TEST_DEFAULTS")
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	// HTTP
	if c.HTTP.Addr != ":8080" || c.HTTP.APIPrefix != "/api" {
		t.Fatalf("HTTP.Addr/APIPrefix wrong: %+v", c.HTTP)
	}
	if c.HTTP.GinMode != "debug" {
		t.Fatalf("HTTP.GinMode: want debug, got %q", c.HTTP.GinMode)
	}
	if c.HTTP.ReadTimeout != 10*time.Second || c.HTTP.WriteTimeout != 10*time.Second {
		t.Fatalf("HTTP timeouts wrong: %+v", c.HTTP)
	}
	if c.HTTP.HandlerTimeout != 3*time.Second || c.HTTP.GracefulTimeout != 5*time.Second {
		t.Fatalf("HTTP handler/graceful timeouts wrong: %+v", c.HTTP)
	}

	// Tracing
	if c.Tracing.Enabled {
		t.Fatalf("Tracing.Enabled: want false, got true")
	}
	if c.Tracing.ServiceName != "orderdesk" || c.Tracing.SampleRatio != 1 {
		t.Fatalf("Tracing defaults wrong: %+v", c.Tracing)
	}

	// Postgres
	if c.Postgres.DSN == "" || c.Postgres.MaxConns != 10 || !c.Postgres.AutoMigrate {
		t.Fatalf("Postgres defaults wrong: %+v", c.Postgres)
	}

	// Redis + Cache
	if c.Redis.Addr != "redis:6379" || c.Redis.DB != 0 {
		t.Fatalf("Redis defaults wrong: %+v", c.Redis)
	}
	if c.Cache.Backend != "redis" || c.Cache.TTL != 5*time.Minute {
		t.Fatalf("Cache defaults wrong: %+v", c.Cache)
	}

	// Kafka + Events
	if !slices.Equal(c.Kafka.Brokers, []string{"kafka:9092"}) || c.Kafka.Topic != "orders" {
		t.Fatalf("Kafka defaults wrong: %+v", c.Kafka)
	}
	if c.Kafka.GroupID != "order-processing" || c.Kafka.StartOffset != "first" {
		t.Fatalf("Kafka consumer defaults wrong: %+v", c.Kafka)
	}
	if c.Events.Driver != "kafka" || c.Events.ConnectRetry != 2*time.Second {
		t.Fatalf("Events defaults wrong: %+v", c.Events)
	}

	// Auth
	if c.Auth.Algorithm != "HS256" || c.Auth.AccessTokenTTL != 30*time.Minute || c.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("Auth defaults wrong: %+v", c.Auth)
	}

	// Orders
	if !c.Orders.EmptyListIsError {
		t.Fatalf("Orders.EmptyListIsError: want true")
	}

	// RateLimit
	if !c.RateLimit.Enabled || c.RateLimit.RegisterLimit != 60 || c.RateLimit.TokenLimit != 120 || c.RateLimit.Window != time.Minute {
		t.Fatalf("RateLimit defaults wrong: %+v", c.RateLimit)
	}

	// Logger
	if c.Logger.IsProd {
		t.Fatalf("Logger.IsProd: want false, got true")
	}
}

// Меняем окружение.
func TestLoadWithPrefix_Overrides(t *testing.T) {
	const p = "ORDER_TEST_OVR"

	t.Setenv(p+"_HTTP_ADDR", ":9999")
	t.Setenv(p+"_HTTP_GIN_MODE", "release")
	t.Setenv(p+"_HTTP_HANDLER_TIMEOUT", "4500ms")
	t.Setenv(p+"_TRACING_OTEL_ENABLED", "true")
	t.Setenv(p+"_TRACING_OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv(p+"_POSTGRES_DSN", "postgres://u:p@h:5432/db?sslmode=disable")
	t.Setenv(p+"_POSTGRES_AUTO_MIGRATE", "false")
	t.Setenv(p+"_REDIS_ADDR", "cache:6380")
	t.Setenv(p+"_CACHE_BACKEND", "memory")
	t.Setenv(p+"_CACHE_TTL", "30s")
	t.Setenv(p+"_KAFKA_BROKERS", "k1:9092,k2:9093")
	t.Setenv(p+"_EVENTS_DRIVER", "rabbitmq")
	t.Setenv(p+"_RABBITMQ_EXCHANGE", "orders-x")
	t.Setenv(p+"_AUTH_SECRET_KEY", "s3cr3t")
	t.Setenv(p+"_AUTH_ACCESS_TOKEN_TTL", "15m")
	t.Setenv(p+"_ORDERS_EMPTY_LIST_IS_ERROR", "false")
	t.Setenv(p+"_WORKER_PROCESS_DELAY", "10s")
	t.Setenv(p+"_LOGGER_IS_PROD", "true")

	c, err := cfg.LoadWithPrefix(p)
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	if c.HTTP.Addr != ":9999" || c.HTTP.GinMode != "release" || c.HTTP.HandlerTimeout != 4500*time.Millisecond {
		t.Fatalf("HTTP overrides wrong: %+v", c.HTTP)
	}
	if !c.Tracing.Enabled || c.Tracing.SampleRatio != 0.25 {
		t.Fatalf("Tracing overrides wrong: %+v", c.Tracing)
	}
	if c.Postgres.DSN != "postgres://u:p@h:5432/db?sslmode=disable" || c.Postgres.AutoMigrate {
		t.Fatalf("Postgres overrides wrong: %+v", c.Postgres)
	}
	if c.Redis.Addr != "cache:6380" || c.Cache.Backend != "memory" || c.Cache.TTL != 30*time.Second {
		t.Fatalf("Redis/Cache overrides wrong: %+v %+v", c.Redis, c.Cache)
	}
	if !slices.Equal(c.Kafka.Brokers, []string{"k1:9092", "k2:9093"}) {
		t.Fatalf("Kafka.Brokers override wrong: %v", c.Kafka.Brokers)
	}
	if c.Events.Driver != "rabbitmq" || c.RabbitMQ.Exchange != "orders-x" {
		t.Fatalf("Events overrides wrong: %+v %+v", c.Events, c.RabbitMQ)
	}
	if c.Auth.SecretKey != "s3cr3t" || c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("Auth overrides wrong: %+v", c.Auth)
	}
	if c.Orders.EmptyListIsError || c.Worker.ProcessDelay != 10*time.Second || !c.Logger.IsProd {
		t.Fatalf("Orders/Worker/Logger overrides wrong: %+v %+v %+v", c.Orders, c.Worker, c.Logger)
	}
}

// Тоже меняем окружение — но с невалидным значением.
func TestLoadWithPrefix_InvalidValue_ReturnsError(t *testing.T) {
	const p = "ORDER_TEST_BAD"
	t.Setenv(p+"_HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := cfg.LoadWithPrefix(p); err == nil {
		t.Fatalf("expected error for invalid duration, got nil")
	}
}
