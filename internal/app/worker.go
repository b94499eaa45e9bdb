package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gunvolt24/orderdesk/config"
	"github.com/Gunvolt24/orderdesk/internal/kafka"
	"github.com/Gunvolt24/orderdesk/internal/usecase"
	"github.com/Gunvolt24/orderdesk/pkg/logger"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
)

// BootstrapWorker — собирает обработчик событий: консьюмер Kafka + сервер метрик.
func BootstrapWorker(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
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

	metrics.MustRegister()
	stack.push(setupTracing(ctx, cfg.Tracing, logg))

	processor := usecase.NewOrderEventProcessor(logg, cfg.Worker.ProcessDelay)
	consumer := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		StartOffset:    cfg.Kafka.StartOffset,
		ProcessTimeout: cfg.Kafka.ProcessTimeout,
		RetryInitial:   cfg.Kafka.RetryInitial,
		RetryMax:       cfg.Kafka.RetryMax,
	}, processor, logg)
	stack.push(func() {
		if cErr := consumer.Close(); cErr != nil {
			logg.Warnf(ctx, "kafka consumer close error: %v", cErr)
		}
	})

	app := &App{
		Logger: logg,
		HTTPServer: &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           newMetricsRouter(),
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		},
		Consumer:        consumer,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	logg.Infof(ctx, "worker bootstrapped topic=%s group_id=%s", cfg.Kafka.Topic, cfg.Kafka.GroupID)
	return app, stack.run, nil
}

// newMetricsRouter — /ping и /metrics для воркера.
func newMetricsRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
