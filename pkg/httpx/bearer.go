package httpx

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken — токен из заголовка "Authorization: Bearer <token>".
// Схема сравнивается без учёта регистра; пустой токен — ("", false).
func BearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
