package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/orderdesk/config"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/internal/repo/postgres"
	"github.com/Gunvolt24/orderdesk/internal/security"
	rest "github.com/Gunvolt24/orderdesk/internal/transport/http"
	"github.com/Gunvolt24/orderdesk/internal/usecase"
	"github.com/Gunvolt24/orderdesk/pkg/logger"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
	"github.com/Gunvolt24/orderdesk/pkg/validate"
)

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// Bootstrap — собирает API-сервис: хранилище, кэш, лимитеры, публикатор событий,
// сервисы и HTTP-сервер. При ошибке уже открытые ресурсы закрываются.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}

	var stack cleanupStack
	stack.push(func() {
		if cErr := cleanupLogger(); cErr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cErr)
		}
	})
	fail := func(err error) (*App, Cleanup, error) {
		logg.Errorf(ctx, "bootstrap failed: %v", err)
		stack.run()
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	stack.push(setupTracing(ctx, cfg.Tracing, logg))

	// Пул подключений Postgres (+ миграции).
	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.ConnectTimeout)
	if err != nil {
		return fail(fmt.Errorf("postgres: %w", err))
	}
	stack.push(pool.Close)

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fail(fmt.Errorf("migrate: %w", err))
		}
		logg.Infof(ctx, "database migrations applied")
	}

	// Redis нужен кэшу (backend=redis) и лимитерам.
	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if rdb != nil {
		stack.push(func() {
			if cErr := rdb.Close(); cErr != nil {
				logg.Warnf(ctx, "redis close: %v", cErr)
			}
		})
	}

	orderCache, err := newOrderCache(cfg.Cache, rdb)
	if err != nil {
		return fail(err)
	}
	registerLimiter, tokenLimiter := newLimiters(cfg.RateLimit, rdb)

	// Публикатор событий: ждём брокер, пока не отменят контекст.
	publisher, err := newEventPublisher(ctx, cfg, logg)
	if err != nil {
		return fail(err)
	}
	stack.push(func() {
		if cErr := publisher.Close(); cErr != nil {
			logg.Warnf(ctx, "event publisher close: %v", cErr)
		}
	})

	tokens, err := security.NewTokenIssuer(security.Config{
		SecretKey:       cfg.Auth.SecretKey,
		Algorithm:       cfg.Auth.Algorithm,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		BcryptCost:      cfg.Auth.BcryptCost,
	})
	if err != nil {
		return fail(err)
	}

	// Сборка зависимостей доменного слоя.
	orderService := usecase.NewOrderService(
		postgres.NewOrderRepository(pool),
		orderCache,
		publisher,
		logg,
		validate.NewOrderValidator(),
		usecase.WithEmptyListIsError(cfg.Orders.EmptyListIsError),
		usecase.WithPublishTimeout(cfg.Events.PublishTimeout),
	)
	authService := usecase.NewAuthService(
		postgres.NewUserRepository(pool),
		tokens,
		validate.NewCredentialsValidator(),
		logg,
	)

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(orderService, authService, logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, rest.RouterOptions{
		APIPrefix:       cfg.HTTP.APIPrefix,
		ServiceName:     otelServiceName,
		RegisterLimiter: registerLimiter,
		TokenLimiter:    tokenLimiter,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	logg.Infof(ctx, "api bootstrapped cache=%s events=%s rate_limit=%t",
		cfg.Cache.Backend, cfg.Events.Driver, cfg.RateLimit.Enabled)

	// Очистка ресурсов (в обратном порядке).
	return app, stack.run, nil
}
