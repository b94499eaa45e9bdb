package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/httpx"
)

// RouterOptions — всё, что роутеру нужно кроме хендлеров.
type RouterOptions struct {
	APIPrefix   string // по умолчанию /api
	GinMode     string // debug | release | test; пусто — не трогаем
	ServiceName string // имя для otelgin; пусто — без трейсинга запросов

	// Лимитеры для /auth/*; nil — без ограничения.
	RegisterLimiter ports.RateLimiter
	TokenLimiter    ports.RateLimiter
}

// NewRouter — gin.Engine с middleware и маршрутами API.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(httpx.RequestIDMiddleware(), httpx.RequestLogger(h.log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(apiPrefix(opts.APIPrefix), h.requestTimeout())

	auth := api.Group("/auth")
	auth.POST("/register", h.limited(opts.RegisterLimiter, "register"), h.register)
	auth.POST("/token", h.limited(opts.TokenLimiter, "token"), h.token)

	orders := api.Group("/orders", h.requireUser())
	orders.POST("", h.createOrder)
	orders.GET("/:id", h.getOrderByID)
	orders.PATCH("/:id", h.patchOrder)
	orders.GET("/user/:user_id", h.listOrdersByUser)

	return r
}

func apiPrefix(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return "/api"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// limited — rate limit для маршрута или no-op, если лимитер не задан.
func (h *Handler) limited(limiter ports.RateLimiter, route string) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return httpx.RateLimit(limiter, route, h.log)
}
