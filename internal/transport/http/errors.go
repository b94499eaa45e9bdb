package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/pkg/httpx"
	"github.com/Gunvolt24/orderdesk/pkg/validate"
)

// abortUnauthorized — 401 с заголовком WWW-Authenticate: Bearer.
func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// writeError — единая точка перевода ошибок сервисов в HTTP-ответы.
// Причины 5xx только логируются, наружу уходит общий текст.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, validate.ErrInvalidOrder),
		errors.Is(err, validate.ErrInvalidCredentials),
		errors.Is(err, httpx.ErrBadParam):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		abortUnauthorized(c, "incorrect email or password")
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrWrongTokenType):
		abortUnauthorized(c, "could not validate credentials")
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, domain.ErrNoOrdersFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no orders found"})
	case errors.Is(err, domain.ErrUpdateFailed):
		h.log.Errorf(c.Request.Context(), "%s failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order update failed"})
	default:
		h.log.Errorf(c.Request.Context(), "%s failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// badBody — тело запроса не разобрано.
func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
