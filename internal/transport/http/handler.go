package rest

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/ctxmeta"
	"github.com/Gunvolt24/orderdesk/pkg/httpx"
)

// currentUserKey — ключ gin.Context для аутентифицированного пользователя.
const currentUserKey = "current_user"

type Handler struct {
	orders  ports.OrderService
	auth    ports.AuthService
	log     ports.Logger
	timeout time.Duration
}

// NewHandler — timeout ограничивает обработку каждого запроса API (<= 0 — без ограничения).
func NewHandler(orders ports.OrderService, auth ports.AuthService, log ports.Logger, timeout time.Duration) *Handler {
	return &Handler{orders: orders, auth: auth, log: log, timeout: timeout}
}

// requestTimeout — контекст запроса с дедлайном; хранилище и кэш работают под ним.
func (h *Handler) requestTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requireUser — Bearer access-токен обязателен; пользователь кладётся в контекст.
func (h *Handler) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := httpx.BearerToken(c)
		if !ok {
			abortUnauthorized(c, "not authenticated")
			return
		}

		user, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			h.log.Debugf(c.Request.Context(), "authenticate failed: %v", err)
			abortUnauthorized(c, "could not validate credentials")
			return
		}

		c.Request = c.Request.WithContext(ctxmeta.WithUserID(c.Request.Context(), user.ID))
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser — пользователь, положенный requireUser.
func currentUser(c *gin.Context) (*domain.UserContext, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.UserContext)
	return user, ok && user != nil
}
